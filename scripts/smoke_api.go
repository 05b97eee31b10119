//go:build ignore

// End-to-end smoke test against a running instance:
//
//	go run scripts/smoke_api.go
//
// Registers a throwaway user, creates a session, asks a question and pulls
// statistics. Needs the server (and its LLM backend) up on localhost.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/fatih/color"
)

const baseURL = "http://localhost:3000/api"

func prettyPrint(v interface{}) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Printf("%v\n", v)
		return
	}
	fmt.Println(string(b))
}

func sendRequest(method, url, token string, body interface{}) (*http.Response, []byte, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		bodyReader = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequest(method, baseURL+url, bodyReader)
	if err != nil {
		return nil, nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	client := &http.Client{} // generation can be slow, no timeout
	resp, err := client.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	return resp, respBody, err
}

func envelope(body []byte) map[string]interface{} {
	var out map[string]interface{}
	json.Unmarshal(body, &out)
	return out
}

func main() {
	color.Cyan("🚀 Smoke testing the tutor API\n")

	username := fmt.Sprintf("smoke_%d", time.Now().Unix())
	password := "smoke-test-pw"

	// 1. Register
	color.Yellow("\n1. Register %s", username)
	resp, body, err := sendRequest("POST", "/auth/v1/register", "", map[string]interface{}{
		"username": username,
		"email":    username + "@example.com",
		"password": password,
	})
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	color.Green("Status: %s", resp.Status)

	// 2. Login
	color.Yellow("\n2. Login")
	resp, body, err = sendRequest("POST", "/auth/v1/login", "", map[string]interface{}{
		"username": username,
		"password": password,
	})
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	color.Green("Status: %s", resp.Status)
	loginData, _ := envelope(body)["data"].(map[string]interface{})
	token, _ := loginData["token"].(string)
	if token == "" {
		color.Red("No token in login response")
		prettyPrint(envelope(body))
		os.Exit(1)
	}

	// 3. Resolve current session
	color.Yellow("\n3. Resolve current session")
	resp, body, err = sendRequest("GET", "/session/v1/current", token, nil)
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	color.Green("Status: %s", resp.Status)
	sessionData, _ := envelope(body)["data"].(map[string]interface{})
	sessionId, _ := sessionData["id"].(string)
	prettyPrint(sessionData)

	// 4. Ask a question (no documents yet, degraded context is fine)
	color.Yellow("\n4. Ask a question")
	resp, body, err = sendRequest("POST", "/chat/v1/"+sessionId+"/ask", token, map[string]interface{}{
		"question": "What can you help me with?",
	})
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	color.Green("Status: %s", resp.Status)
	prettyPrint(envelope(body)["data"])

	// 5. History
	color.Yellow("\n5. Conversation history")
	resp, body, err = sendRequest("GET", "/session/v1/"+sessionId+"/messages", token, nil)
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	color.Green("Status: %s", resp.Status)
	prettyPrint(envelope(body)["data"])

	// 6. Statistics
	color.Yellow("\n6. Statistics")
	resp, body, err = sendRequest("GET", "/user/v1/statistics", token, nil)
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	color.Green("Status: %s", resp.Status)
	prettyPrint(envelope(body)["data"])

	// 7. Logout and verify revocation
	color.Yellow("\n7. Logout")
	resp, _, err = sendRequest("POST", "/auth/v1/logout", token, nil)
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	color.Green("Status: %s", resp.Status)

	resp, _, _ = sendRequest("GET", "/auth/v1/me", token, nil)
	if resp.StatusCode == http.StatusUnauthorized {
		color.Green("Revocation confirmed: me returned 401 after logout")
	} else {
		color.Red("Expected 401 after logout, got %s", resp.Status)
		os.Exit(1)
	}

	color.Cyan("\n✅ Smoke test finished")
}
