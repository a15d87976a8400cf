package assistant

import (
	"context"
	"fmt"
	"time"

	"recruit-assistant/prompts"

	"go.uber.org/zap"
)

type tool struct {
	Type string `json:"type"`
}

type createAssistantRequest struct {
	Name          string            `json:"name"`
	Instructions  string            `json:"instructions"`
	Model         string            `json:"model"`
	Tools         []tool            `json:"tools"`
	ToolResources map[string]any    `json:"tool_resources,omitempty"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

type object struct {
	ID string `json:"id"`
}

// AssistantID returns the cached assistant id, if any.
func (c *Client) AssistantID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.assistantID
}

// EnsureAssistant returns the assistant id, creating the assistant on first
// use. Concurrent first callers share a single creation request.
func (c *Client) EnsureAssistant(ctx context.Context) (string, error) {
	if id := c.AssistantID(); id != "" {
		return id, nil
	}

	v, err, shared := c.group.Do("assistant:"+c.cfg.AssistantVersion, func() (any, error) {
		if id := c.AssistantID(); id != "" {
			return id, nil
		}
		// Creation outlives the caller that triggered it; others may be waiting.
		createCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Minute)
		defer cancel()

		id, err := c.createAssistant(createCtx)
		if err != nil {
			return "", err
		}
		c.mu.Lock()
		c.assistantID = id
		c.mu.Unlock()
		return id, nil
	})
	if err != nil {
		c.logger.Error("Error creating assistant", zap.Error(err))
		return "", err
	}
	if shared {
		c.logger.Debug("Shared in-flight assistant creation")
	}
	return v.(string), nil
}

func (c *Client) createAssistant(ctx context.Context) (string, error) {
	req := createAssistantRequest{
		Name:         prompts.AssistantName,
		Instructions: prompts.AssistantInstructions(),
		Model:        c.cfg.AssistantModel,
		Tools:        []tool{{Type: "file_search"}},
		Metadata:     map[string]string{"version": c.cfg.AssistantVersion},
	}
	if len(c.cfg.VectorStoreIDs) > 0 {
		req.ToolResources = map[string]any{
			"file_search": map[string]any{"vector_store_ids": c.cfg.VectorStoreIDs},
		}
	}

	var created object
	if err := c.do(ctx, "POST", "/assistants", req, &created); err != nil {
		return "", fmt.Errorf("create assistant: %w", err)
	}
	if created.ID == "" {
		return "", fmt.Errorf("create assistant: empty id in response")
	}
	c.logger.Info("Created assistant",
		zap.String("assistant_id", created.ID),
		zap.String("version", c.cfg.AssistantVersion))
	return created.ID, nil
}
