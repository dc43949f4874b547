package analysis

import (
	"context"
	"errors"
	"strings"
)

var (
	ErrNotFound = errors.New("not found")
	ErrScope    = errors.New("retrieval scope missing document or user id")
)

const (
	ErrorCodeScope             = "SCOPE_ERROR"
	ErrorCodeValidation        = "VALIDATION_FAILED"
	ErrorCodeLLMTimeout        = "LLM_TIMEOUT"
	ErrorCodeLLMSchemaMismatch = "LLM_SCHEMA_MISMATCH"
	ErrorCodeRetrieval         = "RETRIEVAL_ERROR"
	ErrorCodeStorage           = "STORAGE_ERROR"
	ErrorCodeInternal          = "INTERNAL_ERROR"
)

func classifyFailure(err error) (string, bool) {
	if err == nil {
		return ErrorCodeInternal, false
	}
	if errors.Is(err, ErrScope) {
		return ErrorCodeScope, false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrorCodeLLMTimeout, true
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "request timeout") {
		return ErrorCodeLLMTimeout, true
	}
	if strings.Contains(msg, "timeout") && strings.Contains(msg, "llm") {
		return ErrorCodeLLMTimeout, true
	}
	if strings.Contains(msg, "schema") || strings.Contains(msg, "llm output invalid") {
		return ErrorCodeLLMSchemaMismatch, false
	}
	if strings.Contains(msg, "validation failed") {
		return ErrorCodeValidation, false
	}
	if strings.Contains(msg, "retriev") || strings.Contains(msg, "vector") || strings.Contains(msg, "embed") {
		return ErrorCodeRetrieval, true
	}
	if strings.Contains(msg, "storage") || strings.Contains(msg, "snapshot") || strings.Contains(msg, "persist") {
		return ErrorCodeStorage, true
	}
	return ErrorCodeInternal, false
}

func sanitizeError(err error) string {
	if err == nil {
		return ""
	}
	msg := strings.ReplaceAll(err.Error(), "\n", " ")
	msg = strings.ReplaceAll(msg, "\r", " ")
	msg = strings.TrimSpace(msg)
	const maxLen = 500
	if len(msg) > maxLen {
		msg = msg[:maxLen]
	}
	return msg
}
