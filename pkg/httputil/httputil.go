package httputil

import (
	"fmt"
	"io/ioutil"
	"net/http"
	"strings"
	"time"
)

var client = &http.Client{Timeout: 30 * time.Second}

// NewHTTPRequest performs an HTTP call and returns the response status code
// and body.
func NewHTTPRequest(
	method, url, bodyString string, header map[string]string,
) (int, string, error) {
	switch method {
	case http.MethodGet:
		return doRequest(http.MethodGet, url, "", header)
	case http.MethodPost:
		return doRequest(http.MethodPost, url, bodyString, header)
	case http.MethodDelete:
		return doRequest(http.MethodDelete, url, "", header)
	default:
		return 0, "", fmt.Errorf("verb not supported %s", method)
	}
}

func doRequest(
	method, url, bodyString string, header map[string]string,
) (int, string, error) {
	var body = strings.NewReader(bodyString)
	req, err := http.NewRequest(method, url, body)
	if err != nil {
		return 0, "", err
	}

	for key, value := range header {
		req.Header.Set(key, value)
	}

	rs, err := client.Do(req)
	if err != nil {
		return 0, "", err
	}
	defer rs.Body.Close()

	bodyBytes, err := ioutil.ReadAll(rs.Body)
	if err != nil {
		return 0, "", err
	}

	return rs.StatusCode, string(bodyBytes), nil
}
