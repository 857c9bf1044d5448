package client

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"
)

type TaskService struct {
	Options []RequestOption
}

func NewTaskService(opts ...RequestOption) TaskService {
	return TaskService{
		Options: opts,
	}
}

type TaskRequest struct {
	Title string `json:"title,omitempty"`

	Request string `json:"request"`

	IntervalSeconds int `json:"interval_seconds"`

	ExecuteImmediately bool `json:"execute_immediately"`

	Provider string `json:"provider,omitempty"`
	Model    string `json:"model,omitempty"`
}

type Task struct {
	ID string `json:"id"`

	Title string `json:"title,omitempty"`

	Request string `json:"request"`

	IntervalSeconds int `json:"interval_seconds"`

	ExecuteImmediately bool `json:"execute_immediately"`

	Provider string `json:"provider,omitempty"`
	Model    string `json:"model,omitempty"`

	SessionID string `json:"session_id,omitempty"`

	Running bool `json:"running"`

	SecondsUntilNextExecution int64 `json:"seconds_until_next_execution"`

	CreatedAt time.Time `json:"created_at"`
}

func (r *TaskService) New(ctx context.Context, input TaskRequest, opts ...RequestOption) (*Task, error) {
	c := newRequestConfig(append(r.Options, opts...)...)

	var body bytes.Buffer

	if err := json.NewEncoder(&body).Encode(input); err != nil {
		return nil, err
	}

	req, _ := http.NewRequestWithContext(ctx, "POST", c.URL+"/v1/tasks", &body)
	req.Header.Set("Content-Type", "application/json")

	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.Client.Do(req)

	if err != nil {
		return nil, err
	}

	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return nil, readError(resp)
	}

	var task Task

	if err := json.NewDecoder(resp.Body).Decode(&task); err != nil {
		return nil, err
	}

	return &task, nil
}

func (r *TaskService) List(ctx context.Context, opts ...RequestOption) ([]Task, error) {
	c := newRequestConfig(append(r.Options, opts...)...)

	req, _ := http.NewRequestWithContext(ctx, "GET", c.URL+"/v1/tasks", nil)
	req.Header.Set("Content-Type", "application/json")

	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.Client.Do(req)

	if err != nil {
		return nil, err
	}

	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, readError(resp)
	}

	var tasks []Task

	if err := json.NewDecoder(resp.Body).Decode(&tasks); err != nil {
		return nil, err
	}

	return tasks, nil
}

func (r *TaskService) Get(ctx context.Context, id string, opts ...RequestOption) (*Task, error) {
	c := newRequestConfig(append(r.Options, opts...)...)

	req, _ := http.NewRequestWithContext(ctx, "GET", c.URL+"/v1/tasks/"+id, nil)
	req.Header.Set("Content-Type", "application/json")

	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.Client.Do(req)

	if err != nil {
		return nil, err
	}

	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, readError(resp)
	}

	var task Task

	if err := json.NewDecoder(resp.Body).Decode(&task); err != nil {
		return nil, err
	}

	return &task, nil
}

func (r *TaskService) Delete(ctx context.Context, id string, opts ...RequestOption) error {
	c := newRequestConfig(append(r.Options, opts...)...)

	req, _ := http.NewRequestWithContext(ctx, "DELETE", c.URL+"/v1/tasks/"+id, nil)

	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.Client.Do(req)

	if err != nil {
		return err
	}

	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		return readError(resp)
	}

	return nil
}
