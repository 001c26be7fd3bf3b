package node

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/sony/gobreaker"
	"github.com/tanglewallet/walletd/pkg/circuitbreaker"
	"github.com/tanglewallet/walletd/pkg/httputil"
	"github.com/tanglewallet/walletd/pkg/ledger"
	"go.uber.org/ratelimit"
)

// requestsPerSecond throttles the calls against the node API so that batched
// scans don't get rate limited server side.
const requestsPerSecond = 20

type nodeService struct {
	apiURL  string
	cb      *gobreaker.CircuitBreaker
	limiter ratelimit.Limiter
}

// NewService returns a ledger.Service reaching the node HTTP API at apiURL.
func NewService(apiURL string) (ledger.Service, error) {
	service := &nodeService{
		apiURL:  strings.TrimSuffix(apiURL, "/"),
		cb:      circuitbreaker.NewCircuitBreaker(),
		limiter: ratelimit.New(requestsPerSecond),
	}

	if err := service.healthCheck(); err != nil {
		return nil, fmt.Errorf("health check: %w", err)
	}

	return service, nil
}

func (n *nodeService) GetTransactionsForAddresses(
	addresses []string,
) ([]ledger.Message, error) {
	endpoint := fmt.Sprintf(
		"%s/api/v1/addresses/transactions?addresses=%s",
		n.apiURL, joinQueryValues(addresses),
	)
	resp, err := n.get(endpoint)
	if err != nil {
		return nil, err
	}

	parsed := transactionsResponse{}
	if err := json.Unmarshal([]byte(resp), &parsed); err != nil {
		return nil, err
	}
	return parsed.Transactions, nil
}

func (n *nodeService) GetAddressesBalance(
	addresses []string,
) ([]ledger.AddressBalance, error) {
	endpoint := fmt.Sprintf(
		"%s/api/v1/addresses/balance?addresses=%s",
		n.apiURL, joinQueryValues(addresses),
	)
	resp, err := n.get(endpoint)
	if err != nil {
		return nil, err
	}

	parsed := balancesResponse{}
	if err := json.Unmarshal([]byte(resp), &parsed); err != nil {
		return nil, err
	}
	return parsed.Balances, nil
}

func (n *nodeService) IsConfirmed(ids []string) (map[string]bool, error) {
	body, err := json.Marshal(idsRequest{IDs: ids})
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/api/v1/transactions/confirmed", n.apiURL)
	resp, err := n.post(endpoint, string(body))
	if err != nil {
		return nil, err
	}

	parsed := confirmationStatesResponse{}
	if err := json.Unmarshal([]byte(resp), &parsed); err != nil {
		return nil, err
	}
	return parsed.States, nil
}

func (n *nodeService) GetTransactionsByIDs(ids []string) ([]ledger.Message, error) {
	endpoint := fmt.Sprintf(
		"%s/api/v1/transactions?ids=%s", n.apiURL, joinQueryValues(ids),
	)
	resp, err := n.get(endpoint)
	if err != nil {
		return nil, err
	}

	parsed := transactionsResponse{}
	if err := json.Unmarshal([]byte(resp), &parsed); err != nil {
		return nil, err
	}
	return parsed.Transactions, nil
}

func (n *nodeService) GetOutputs(addresses []string) ([]ledger.Output, error) {
	endpoint := fmt.Sprintf(
		"%s/api/v1/addresses/outputs?addresses=%s",
		n.apiURL, joinQueryValues(addresses),
	)
	resp, err := n.get(endpoint)
	if err != nil {
		return nil, err
	}

	parsed := outputsResponse{}
	if err := json.Unmarshal([]byte(resp), &parsed); err != nil {
		return nil, err
	}
	return parsed.Outputs, nil
}

func (n *nodeService) GetTips() (string, string, error) {
	endpoint := fmt.Sprintf("%s/api/v1/tips", n.apiURL)
	resp, err := n.get(endpoint)
	if err != nil {
		return "", "", err
	}

	parsed := tipsResponse{}
	if err := json.Unmarshal([]byte(resp), &parsed); err != nil {
		return "", "", err
	}
	return parsed.Tip1, parsed.Tip2, nil
}

func (n *nodeService) PostMessages(messages []ledger.Message) ([]string, error) {
	body, err := json.Marshal(postMessagesRequest{Messages: messages})
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/api/v1/messages", n.apiURL)
	resp, err := n.post(endpoint, string(body))
	if err != nil {
		return nil, err
	}

	parsed := postMessagesResponse{}
	if err := json.Unmarshal([]byte(resp), &parsed); err != nil {
		return nil, err
	}
	return parsed.IDs, nil
}

func (n *nodeService) healthCheck() error {
	endpoint := fmt.Sprintf("%s/api/v1/info", n.apiURL)
	_, err := n.get(endpoint)
	return err
}

func (n *nodeService) get(endpoint string) (string, error) {
	n.limiter.Take()

	resp, err := n.cb.Execute(func() (interface{}, error) {
		status, body, err := httputil.NewHTTPRequest(
			http.MethodGet, endpoint, "", nil,
		)
		if err != nil {
			return nil, err
		}
		if status != http.StatusOK {
			return nil, fmt.Errorf("node: %s", body)
		}
		return body, nil
	})
	if err != nil {
		return "", err
	}

	return resp.(string), nil
}

func (n *nodeService) post(endpoint, body string) (string, error) {
	n.limiter.Take()

	resp, err := n.cb.Execute(func() (interface{}, error) {
		status, respBody, err := httputil.NewHTTPRequest(
			http.MethodPost, endpoint, body,
			map[string]string{"Content-Type": "application/json"},
		)
		if err != nil {
			return nil, err
		}
		if status != http.StatusOK {
			return nil, fmt.Errorf("node: %s", respBody)
		}
		return respBody, nil
	})
	if err != nil {
		return "", err
	}

	return resp.(string), nil
}

func joinQueryValues(values []string) string {
	return url.QueryEscape(strings.Join(values, ","))
}
