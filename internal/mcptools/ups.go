package mcptools

import (
	"context"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/nerrad567/ups-monitor/internal/history"
	"github.com/nerrad567/ups-monitor/internal/infrastructure/logging"
	"github.com/nerrad567/ups-monitor/internal/snapshot"
)

const (
	toolNameStatus  = "ups_status"
	toolNameHistory = "ups_history"
)

// SnapshotSource polls upsd and caches the result.
type SnapshotSource interface {
	Build(ctx context.Context) *snapshot.SystemSnapshot
	Latest() *snapshot.SystemSnapshot
}

// HistoryQuerier answers history range queries.
type HistoryQuerier interface {
	Query(ctx context.Context, deviceID string, period history.Period) ([]history.Point, error)
}

// UPSTools returns the read-only UPS tools.
func UPSTools(snaps SnapshotSource, hist HistoryQuerier, logger *logging.Logger) []Registration {
	if logger == nil {
		logger = logging.Discard()
	}
	logger = logger.Component("mcp")
	return []Registration{
		upsStatus(snaps, logger),
		upsHistory(hist, logger),
	}
}

func upsStatus(snaps SnapshotSource, logger *logging.Logger) Registration {
	tool := mcp.NewTool(toolNameStatus,
		mcp.WithDescription("Return every UPS from the most recent NUT poll with its variables, room and last update time. "+
			"When the NUT server is unreachable the result is {\"error\": \"...\"}."),
	)

	handler := func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		snap, cached := snaps.Latest(), true
		if snap == nil {
			snap, cached = snaps.Build(ctx), false
		}
		logger.Debug("tool called", "tool", toolNameStatus, "error_state", snap.IsError(),
			"cached", cached, "duration_ms", time.Since(start).Milliseconds())
		return JSONResult(snap), nil
	}

	return Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}

func upsHistory(hist HistoryQuerier, logger *logging.Logger) Registration {
	tool := mcp.NewTool(toolNameHistory,
		mcp.WithDescription("Return logged input voltage and battery charge readings for one UPS, oldest first."),
		mcp.WithString("ups",
			mcp.Required(),
			mcp.Description("UPS name as reported by the NUT server"),
		),
		mcp.WithString("period",
			mcp.Description("Look-back window: 1d, 1w or 1m. Anything else means 1d."),
			mcp.Enum(string(history.PeriodDay), string(history.PeriodWeek), string(history.PeriodMonth)),
		),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ups := req.GetString("ups", "")
		if ups == "" {
			return ErrorResult("parameter 'ups' is required"), nil
		}
		period := history.ParsePeriod(req.GetString("period", ""))

		points, err := hist.Query(ctx, ups, period)
		if err != nil {
			logger.Error("history query failed", "tool", toolNameHistory, "ups", ups, "error", err)
			return ErrorResult(err.Error()), nil
		}
		if points == nil {
			points = []history.Point{}
		}
		return JSONResult(points), nil
	}

	return Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}
