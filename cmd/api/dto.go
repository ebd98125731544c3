package main

import (
	"time"

	"callreview/auth"
	"callreview/call"
	"callreview/chat"
)

type loginResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	User        userResponse `json:"user"`
}

type userResponse struct {
	ID       string    `json:"id"`
	Username string    `json:"username"`
	Role     auth.Role `json:"role"`
	RepName  string    `json:"rep_name"`
}

type repResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	RepName  string `json:"rep_name"`
}

type webhookRequest struct {
	CallID        string        `json:"call_id"`
	RepID         string        `json:"rep_id"`
	RepName       string        `json:"rep_name"`
	CallTitle     string        `json:"call_title"`
	CallDate      string        `json:"call_date"`
	TranscriptURL string        `json:"transcript_url"`
	Analysis      call.Analysis `json:"analysis"`
}

type callResponse struct {
	ID            string        `json:"id"`
	CallID        string        `json:"call_id"`
	RepID         string        `json:"rep_id"`
	RepName       string        `json:"rep_name"`
	CallTitle     string        `json:"call_title"`
	CallDate      string        `json:"call_date"`
	TranscriptURL string        `json:"transcript_url"`
	Analysis      call.Analysis `json:"analysis"`
	CreatedAt     string        `json:"created_at"`
}

type chatRequest struct {
	Message string `json:"message"`
	CallID  string `json:"call_id,omitempty"`
}

type chatResponse struct {
	Response  string `json:"response"`
	Timestamp string `json:"timestamp"`
	Degraded  bool   `json:"degraded"`
}

type chatExchangeResponse struct {
	ID        string  `json:"id"`
	CallID    *string `json:"call_id"`
	Message   string  `json:"message"`
	Response  string  `json:"response"`
	CreatedAt string  `json:"created_at"`
}

func toUserResponse(user auth.User) userResponse {
	return userResponse{
		ID:       user.ID,
		Username: user.Username,
		Role:     user.Role,
		RepName:  user.RepName,
	}
}

func toCallResponse(record call.CallAnalysis) callResponse {
	analysis := record.Analysis
	if analysis == nil {
		analysis = call.Analysis{}
	}
	return callResponse{
		ID:            record.ID,
		CallID:        record.CallID,
		RepID:         record.RepID,
		RepName:       record.RepName,
		CallTitle:     record.CallTitle,
		CallDate:      record.CallDate,
		TranscriptURL: record.TranscriptURL,
		Analysis:      analysis,
		CreatedAt:     record.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func toChatExchangeResponse(e chat.Exchange) chatExchangeResponse {
	return chatExchangeResponse{
		ID:        e.ID,
		CallID:    e.CallID,
		Message:   e.Message,
		Response:  e.Response,
		CreatedAt: e.CreatedAt.UTC().Format(time.RFC3339),
	}
}
