package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"time"
)

// Smoke test against a running server. BASE_URL defaults to localhost and
// TOKEN is sent as a bearer token when set; without it the server must allow
// anonymous access.
func main() {
	baseURL := os.Getenv("BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}
	c := &client{base: baseURL, token: os.Getenv("TOKEN"), http: &http.Client{Timeout: 60 * time.Second}}

	fmt.Println("Starting smoke test against", baseURL)

	fmt.Println("1. Health...")
	var health struct {
		Status   string            `json:"status"`
		Services map[string]string `json:"services"`
	}
	c.mustDo(http.MethodGet, "/api/health", nil, "", &health)
	fmt.Printf("PASSED: Health (%s, %v)\n", health.Status, health.Services)

	fmt.Println("2. Uploading text...")
	body, contentType := textForm(fmt.Sprintf(
		"Smoke test %d. Alice is a software engineer in San Francisco who loves hiking and graph databases.",
		time.Now().Unix()))
	var upload struct {
		Success     bool   `json:"success"`
		FileID      string `json:"file_id"`
		TotalChunks int    `json:"total_chunks"`
	}
	c.mustDo(http.MethodPost, "/api/upload", body, contentType, &upload)
	fmt.Printf("PASSED: Upload (file %s, %d chunks)\n", upload.FileID, upload.TotalChunks)

	fmt.Println("3. Upload history...")
	var history struct {
		Count int `json:"count"`
	}
	c.mustDo(http.MethodGet, "/api/upload/history", nil, "", &history)
	if history.Count == 0 {
		fail("history is empty after upload")
	}
	fmt.Println("PASSED: History")

	fmt.Println("4. Graph search...")
	var nodes []map[string]any
	c.mustDo(http.MethodGet, "/api/graph/search?query="+url.QueryEscape("hiking"), nil, "", &nodes)
	fmt.Printf("PASSED: Search (%d nodes)\n", len(nodes))

	fmt.Println("5. Dashboard...")
	var dashboard struct {
		TotalUploads int `json:"totalUploads"`
	}
	c.mustDo(http.MethodGet, "/api/dashboard/overview", nil, "", &dashboard)
	fmt.Printf("PASSED: Dashboard (%d uploads)\n", dashboard.TotalUploads)

	fmt.Println("Smoke test finished")
}

type client struct {
	base  string
	token string
	http  *http.Client
}

func (c *client) mustDo(method, endpoint string, body io.Reader, contentType string, out any) {
	req, err := http.NewRequest(method, c.base+endpoint, body)
	if err != nil {
		fail(fmt.Sprintf("creating request: %v", err))
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		fail(fmt.Sprintf("%s %s: %v", method, endpoint, err))
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		fail(fmt.Sprintf("%s %s returned %d: %s", method, endpoint, resp.StatusCode, respBody))
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		fail(fmt.Sprintf("decoding %s: %v", endpoint, err))
	}
}

func textForm(text string) (io.Reader, string) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	_ = w.WriteField("textInput", text)
	_ = w.Close()
	return &buf, w.FormDataContentType()
}

func fail(msg string) {
	fmt.Println("FAILED:", msg)
	os.Exit(1)
}
