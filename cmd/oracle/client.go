package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

var client = &http.Client{Timeout: 30 * time.Second}

type errorResponse struct {
	Error string `json:"error"`
}

func post[T any](url string, body interface{}) (result T, err error) {
	buf, err := json.Marshal(body)
	if err != nil {
		return
	}
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(buf))
	if err != nil {
		return
	}
	req.Header.Add("Content-Type", "application/json")

	return do[T](req)
}

func get[T any](url string) (result T, err error) {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return
	}
	req.Header.Add("Content-Type", "application/json")

	return do[T](req)
}

func do[T any](req *http.Request) (result T, err error) {
	resp, err := client.Do(req)
	if err != nil {
		return
	}
	defer resp.Body.Close()

	buf, err := io.ReadAll(resp.Body)
	if err != nil {
		return
	}
	if resp.StatusCode >= http.StatusBadRequest {
		errResp := errorResponse{}
		if jsonErr := json.Unmarshal(buf, &errResp); jsonErr == nil && errResp.Error != "" {
			err = fmt.Errorf("%s (%d)", errResp.Error, resp.StatusCode)
			return
		}
		err = fmt.Errorf("request failed with status %d: %s", resp.StatusCode, string(buf))
		return
	}
	if len(buf) <= 0 {
		return
	}

	err = json.Unmarshal(buf, &result)
	return
}

func endpoint(baseURL string, path ...string) string {
	return strings.TrimSuffix(baseURL, "/") + "/v1/" + strings.Join(path, "/")
}

func printJSON(v interface{}) error {
	buf, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(buf))
	return nil
}
