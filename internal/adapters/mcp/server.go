package mcpadapter

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kirillkom/docclass/internal/core/domain"
	"github.com/kirillkom/docclass/internal/core/ports"
)

const (
	serverName    = "docclass"
	serverVersion = "1.0.0"
)

// Tools exposes classification to MCP clients such as editors and agents.
type Tools struct {
	classifier ports.DocumentClassifier
	evaluator  ports.ModelEvaluator
}

func NewTools(classifier ports.DocumentClassifier, evaluator ports.ModelEvaluator) *Tools {
	return &Tools{classifier: classifier, evaluator: evaluator}
}

func (t *Tools) Server() *server.MCPServer {
	s := server.NewMCPServer(serverName, serverVersion,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)

	s.AddTool(mcp.NewTool("classify_text",
		mcp.WithDescription("Classify plain text into Legal, HR, Finance, Medical or Technical."),
		mcp.WithString("text", mcp.Required(), mcp.Description("Document text, at least 10 characters")),
	), t.classifyText)

	s.AddTool(mcp.NewTool("classify_file",
		mcp.WithDescription("Classify a PDF or DOCX document supplied as base64."),
		mcp.WithString("filename", mcp.Required(), mcp.Description("Original filename; the extension selects the extractor")),
		mcp.WithString("content_base64", mcp.Required(), mcp.Description("Base64-encoded file bytes")),
	), t.classifyFile)

	s.AddTool(mcp.NewTool("list_categories",
		mcp.WithDescription("List the category names in model output order."),
	), t.listCategories)

	if t.evaluator != nil {
		s.AddTool(mcp.NewTool("evaluate_model",
			mcp.WithDescription("Score the loaded model against the built-in validation sentences."),
		), t.evaluate)
	}
	return s
}

func (t *Tools) classifyText(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := request.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if t.classifier == nil {
		return mcp.NewToolResultError("Classification model not available"), nil
	}
	result, err := t.classifier.ClassifyText(ctx, text)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(result)
}

func (t *Tools) classifyFile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	filename, err := request.RequireString("filename")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	encoded, err := request.RequireString("content_base64")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	format, ok := domain.FormatFromFilename(filename)
	if !ok {
		return mcp.NewToolResultError("File type not supported. Allowed: pdf, docx"), nil
	}
	content, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return mcp.NewToolResultError("content_base64 is not valid base64"), nil
	}
	if t.classifier == nil {
		return mcp.NewToolResultError("Classification model not available"), nil
	}

	result, err := t.classifier.Classify(ctx, domain.RawDocument{
		Filename: filename,
		Format:   format,
		Content:  content,
	})
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(result)
}

func (t *Tools) listCategories(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(map[string][]string{"categories": domain.CategoryNames()})
}

func (t *Tools) evaluate(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	report, err := t.evaluator.Evaluate(ctx)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(report)
}

func toolError(err error) *mcp.CallToolResult {
	return mcp.NewToolResultError(fmt.Sprintf("%s: %v", domain.ErrorKind(err), err))
}

func jsonResult(payload any) (*mcp.CallToolResult, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode tool result: %w", err)
	}
	return mcp.NewToolResultText(string(raw)), nil
}
