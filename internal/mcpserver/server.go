// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes wallet label tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/labelvault/internal/apperr"
	"github.com/starford/labelvault/internal/bip329"
	"github.com/starford/labelvault/internal/labelservice"
)

// FormatResourceURI names the BIP-329 format resource.
const FormatResourceURI = "labelvault://bip329-format"

var typeNames = func() []string {
	out := make([]string, len(bip329.Types))
	for i, t := range bip329.Types {
		out[i] = string(t)
	}
	return out
}()

// Server wraps the MCP server with label tools.
type Server struct {
	mcp *server.MCPServer
	svc *labelservice.Service
}

// New creates a new MCP server with all label tools registered.
func New(svc *labelservice.Service, version string) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"labelvault",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("get_label",
		mcp.WithDescription("Read the label record for one wallet reference."),
		mcp.WithString("type", mcp.Required(), mcp.Enum(typeNames...), mcp.Description("Record type")),
		mcp.WithString("ref", mcp.Required(), mcp.Description("Txid, address, pubkey, outpoint (<txid>:<vout>) or xpub")),
	), s.getLabel)

	s.mcp.AddTool(mcp.NewTool("set_label",
		mcp.WithDescription("Create or replace the label for a wallet reference. "+
			"Changes stay in memory until save_labels is called unless the server saves automatically. "+
			"Read get_label_format or the "+FormatResourceURI+" resource for field rules."),
		mcp.WithString("type", mcp.Required(), mcp.Enum(typeNames...), mcp.Description("Record type")),
		mcp.WithString("ref", mcp.Required(), mcp.Description("Reference the label applies to")),
		mcp.WithString("label", mcp.Description("Label text, at most 255 characters")),
		mcp.WithString("origin", mcp.Description("Key origin descriptor, tx records only")),
		mcp.WithBoolean("spendable", mcp.Description("Whether the output may be spent, output records only")),
	), s.setLabel)

	s.mcp.AddTool(mcp.NewTool("list_labels",
		mcp.WithDescription("List labels in insertion order, optionally filtered by type."),
		mcp.WithString("type", mcp.Enum(typeNames...), mcp.Description("Optional record type filter")),
		mcp.WithNumber("limit", mcp.Description("Page size (default 50, max 500)")),
		mcp.WithNumber("offset", mcp.Description("Records to skip")),
	), s.listLabels)

	s.mcp.AddTool(mcp.NewTool("search_labels",
		mcp.WithDescription("Full-text search through label text and references."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
		mcp.WithNumber("limit", mcp.Description("Max results (default 20)")),
	), s.searchLabels)

	s.mcp.AddTool(mcp.NewTool("import_labels",
		mcp.WithDescription("Merge BIP-329 JSONL into the label set. Incoming records replace existing "+
			"records with the same reference. Returns the number of records processed."),
		mcp.WithString("jsonl", mcp.Required(), mcp.Description("One BIP-329 JSON object per line")),
	), s.importLabels)

	s.mcp.AddTool(mcp.NewTool("save_labels",
		mcp.WithDescription("Write the label set to labels.jsonl atomically."),
	), s.saveLabels)

	s.mcp.AddTool(mcp.NewTool("get_label_format",
		mcp.WithDescription("Returns the BIP-329 label format rules this server enforces. "+
			"Call this before setting or importing labels."),
	), s.getLabelFormat)

	s.mcp.AddResource(
		mcp.NewResource(FormatResourceURI, "BIP-329 Label Format",
			mcp.WithResourceDescription("Wallet label export format accepted by this server."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func requireRef(req mcp.CallToolRequest) (bip329.Ref, error) {
	typ, err := req.RequireString("type")
	if err != nil {
		return bip329.Ref{}, err
	}
	value, err := req.RequireString("ref")
	if err != nil {
		return bip329.Ref{}, err
	}
	t := bip329.Type(typ)
	if !t.Valid() {
		return bip329.Ref{}, fmt.Errorf("unknown type %q (allowed: %s)", typ, strings.Join(typeNames, ", "))
	}
	return bip329.Ref{Type: t, Value: value}, nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getLabel(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ref, err := requireRef(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	label, err := s.svc.Get(ctx, ref)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("no label for %s", ref)), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(label)
}

func (s *Server) setLabel(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ref, err := requireRef(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var in labelservice.LabelInput
	args := req.GetArguments()
	if v, ok := args["label"].(string); ok {
		in.Label = &v
	}
	if v, ok := args["origin"].(string); ok {
		in.Origin = &v
	}
	if v, ok := args["spendable"].(bool); ok {
		in.Spendable = &v
	}

	label, err := s.svc.Set(ctx, ref, in)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(label)
}

func (s *Server) listLabels(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	typ := bip329.Type(req.GetString("type", ""))
	items, total, err := s.svc.List(ctx, typ, req.GetInt("limit", 0), req.GetInt("offset", 0))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(map[string]any{"labels": items, "total": total})
}

func (s *Server) searchLabels(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.svc.Search(ctx, query, req.GetInt("limit", 20))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(results)
}

func (s *Server) importLabels(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	jsonl, err := req.RequireString("jsonl")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	n, err := s.svc.Import(ctx, strings.NewReader(jsonl))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("imported: %d", n)), nil
}

func (s *Server) saveLabels(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sum, err := s.svc.Save(ctx, "")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if sum == "" {
		return mcp.NewToolResultText("nothing to save"), nil
	}
	return mcp.NewToolResultText("saved: " + sum), nil
}

func (s *Server) getLabelFormat(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(LabelFormatContract), nil
}

func (s *Server) readFormatResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      FormatResourceURI,
			MIMEType: "text/markdown",
			Text:     LabelFormatContract,
		},
	}, nil
}
