// Copyright 2026 fanjia1024
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/go-resty/resty/v2"
)

func apiBaseURL() string {
	if u := os.Getenv("POLICYPULSE_API_URL"); u != "" {
		return u
	}
	return "http://localhost:8080"
}

func newClient() *resty.Client {
	return resty.New().
		SetBaseURL(apiBaseURL()).
		SetTimeout(120 * time.Second).
		SetHeader("Content-Type", "application/json")
}

func createSession() (string, error) {
	var out struct {
		SessionID string `json:"session_id"`
	}
	resp, err := newClient().R().
		SetResult(&out).
		Post("/api/sessions")
	if err != nil {
		return "", err
	}
	if resp.StatusCode() != http.StatusCreated {
		return "", fmt.Errorf("POST /api/sessions: %s", resp.String())
	}
	return out.SessionID, nil
}

type turnResult struct {
	Reply       string   `json:"reply"`
	Rationale   string   `json:"rationale"`
	Suggestions []string `json:"suggestions"`
	Source      string   `json:"source"`
	Rejected    bool     `json:"rejected"`
}

func sendChat(sessionID, message string) (*turnResult, error) {
	var out turnResult
	resp, err := newClient().R().
		SetBody(map[string]string{"message": message}).
		SetResult(&out).
		Post("/api/sessions/" + sessionID + "/chat")
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("POST chat: %s", resp.String())
	}
	return &out, nil
}

func uploadDocument(sessionID, path string) error {
	resp, err := newClient().R().
		SetFile("file", path).
		Post("/api/sessions/" + sessionID + "/documents")
	if err != nil {
		return err
	}
	if resp.StatusCode() != http.StatusCreated {
		return fmt.Errorf("upload: %s", resp.String())
	}
	fmt.Println(resp.String())
	return nil
}

func clearDocument(sessionID string) error {
	resp, err := newClient().R().
		Delete("/api/sessions/" + sessionID + "/documents")
	if err != nil {
		return err
	}
	if resp.StatusCode() != http.StatusNoContent {
		return fmt.Errorf("clear document: %s", resp.String())
	}
	return nil
}

func getMemory(sessionID string) (int, []string, error) {
	var out struct {
		Count     int      `json:"count"`
		Summaries []string `json:"summaries"`
	}
	resp, err := newClient().R().
		SetResult(&out).
		Get("/api/sessions/" + sessionID + "/memory")
	if err != nil {
		return 0, nil, err
	}
	if resp.StatusCode() != http.StatusOK {
		return 0, nil, fmt.Errorf("get memory: %s", resp.String())
	}
	return out.Count, out.Summaries, nil
}

func clearMemory(sessionID string) error {
	resp, err := newClient().R().
		Delete("/api/sessions/" + sessionID + "/memory")
	if err != nil {
		return err
	}
	if resp.StatusCode() != http.StatusNoContent {
		return fmt.Errorf("clear memory: %s", resp.String())
	}
	return nil
}

func setStreaming(sessionID string, on bool) error {
	resp, err := newClient().R().
		SetBody(map[string]bool{"enabled": on}).
		Put("/api/sessions/" + sessionID + "/streaming")
	if err != nil {
		return err
	}
	if resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("set streaming: %s", resp.String())
	}
	return nil
}

func checkHealth() error {
	resp, err := newClient().R().Get("/api/health")
	if err != nil {
		return err
	}
	if resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("health: %s", resp.String())
	}
	fmt.Println("ok")
	return nil
}
