package telemetry

import (
	"context"
	"fmt"
	"time"

	"github.com/AdrianChallinorOsiris/monitor/internal/audit"
	"github.com/AdrianChallinorOsiris/monitor/internal/tools"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// HostProbes lists the probe names accepted by telemetry_host.
var HostProbes = []string{
	"name", "uptime", "loadavg", "cpuload", "cpu", "boot", "memory",
	"ip", "reboot", "aptcheck", "aptcheckbrief", "temp", "uname",
}

// Tools returns the MCP tool registrations for svc. All tools are
// read-only and return the same text as the HTTP endpoints.
func Tools(svc *Service, auditLog *audit.Logger) []tools.Registration {
	return []tools.Registration{
		statusTool(svc, auditLog),
		osTool(svc, auditLog),
		diskTool(svc, auditLog),
		sensorTool(svc, auditLog),
		sensorsTool(svc, auditLog),
		portTool(svc, auditLog),
		hostTool(svc, auditLog),
	}
}

// ---------------------------------------------------------------------------
// Tools
// ---------------------------------------------------------------------------

func statusTool(svc *Service, auditLog *audit.Logger) tools.Registration {
	tool := mcp.NewTool("telemetry_status",
		mcp.WithDescription("Liveness string with the running monitor version."),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		out := svc.Status()
		tools.LogAudit(auditLog, "telemetry_status", map[string]any{}, "ok", start)
		return tools.TextResult(out), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}

func osTool(svc *Service, auditLog *audit.Logger) tools.Registration {
	tool := mcp.NewTool("telemetry_os",
		mcp.WithDescription("Read one field of /etc/os-release."),
		mcp.WithString("field",
			mcp.Required(),
			mcp.Description("Field to read: name, version, versionname or codename"),
			mcp.Enum("name", "version", "versionname", "codename"),
		),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		field := req.GetString("field", "")
		params := map[string]any{"field": field}

		key, ok := OSKeys[field]
		if !ok {
			tools.LogAudit(auditLog, "telemetry_os", params, "error: unknown field", start)
			return tools.ErrorResult(fmt.Sprintf("unknown os-release field %q", field)), nil
		}

		out := svc.OSField(key)
		tools.LogAudit(auditLog, "telemetry_os", params, "ok", start)
		return tools.TextResult(out), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}

func diskTool(svc *Service, auditLog *audit.Logger) tools.Registration {
	tool := mcp.NewTool("telemetry_disk",
		mcp.WithDescription("Capacity of a mounted filesystem."),
		mcp.WithString("mount",
			mcp.Required(),
			mcp.Description("Mount name: root for /, otherwise the path below / (e.g. home)"),
		),
		mcp.WithString("metric",
			mcp.Required(),
			mcp.Description("Metric: avail, total, free, freep, usedp or files"),
		),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		mount := req.GetString("mount", "")
		metric := req.GetString("metric", "")
		params := map[string]any{"mount": mount, "metric": metric}

		if mount == "" || metric == "" {
			tools.LogAudit(auditLog, "telemetry_disk", params, "error: missing argument", start)
			return tools.ErrorResult("mount and metric are required"), nil
		}

		out := svc.Disk(mount, metric)
		tools.LogAudit(auditLog, "telemetry_disk", params, "ok", start)
		return tools.TextResult(out), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}

func sensorTool(svc *Service, auditLog *audit.Logger) tools.Registration {
	tool := mcp.NewTool("telemetry_sensor",
		mcp.WithDescription("Look up one lm-sensors reading by chip and metric name (case-insensitive)."),
		mcp.WithString("chip",
			mcp.Required(),
			mcp.Description("Chip name as printed by sensors, e.g. coretemp-isa-0000"),
		),
		mcp.WithString("param",
			mcp.Required(),
			mcp.Description("Normalised metric name, e.g. Package_id_0"),
		),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		chip := req.GetString("chip", "")
		param := req.GetString("param", "")
		params := map[string]any{"chip": chip, "param": param}

		if chip == "" || param == "" {
			tools.LogAudit(auditLog, "telemetry_sensor", params, "error: missing argument", start)
			return tools.ErrorResult("chip and param are required"), nil
		}

		out := svc.Sensor(ctx, chip, param)
		tools.LogAudit(auditLog, "telemetry_sensor", params, "ok", start)
		return tools.TextResult(out), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}

func sensorsTool(svc *Service, auditLog *audit.Logger) tools.Registration {
	tool := mcp.NewTool("telemetry_sensors",
		mcp.WithDescription("List every sensor reading with the URL that serves it."),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		out := svc.SensorListing(ctx)
		tools.LogAudit(auditLog, "telemetry_sensors", map[string]any{}, "ok", start)
		return tools.TextResult(out), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}

func portTool(svc *Service, auditLog *audit.Logger) tools.Registration {
	tool := mcp.NewTool("telemetry_port",
		mcp.WithDescription("Report Up if a local TCP port accepts connections, otherwise Down."),
		mcp.WithNumber("port",
			mcp.Required(),
			mcp.Description("TCP port, 1-65535"),
		),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		port := req.GetInt("port", 0)
		params := map[string]any{"port": port}

		if port < 1 || port > 65535 {
			tools.LogAudit(auditLog, "telemetry_port", params, "error: invalid port", start)
			return tools.ErrorResult(fmt.Sprintf("invalid port %d", port)), nil
		}

		out := svc.Port(ctx, uint16(port))
		tools.LogAudit(auditLog, "telemetry_port", params, out, start)
		return tools.TextResult(out), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}

func hostTool(svc *Service, auditLog *audit.Logger) tools.Registration {
	tool := mcp.NewTool("telemetry_host",
		mcp.WithDescription("Run one host probe. temp takes a thermal zone id as arg; uname takes a selector n, s, r, v or m."),
		mcp.WithString("probe",
			mcp.Required(),
			mcp.Description("Probe name"),
			mcp.Enum(HostProbes...),
		),
		mcp.WithString("arg",
			mcp.Description("Probe argument for temp and uname"),
		),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		probe := req.GetString("probe", "")
		arg := req.GetString("arg", "")
		params := map[string]any{"probe": probe, "arg": arg}

		out, ok := svc.runHostProbe(ctx, probe, arg)
		if !ok {
			tools.LogAudit(auditLog, "telemetry_host", params, "error: unknown probe", start)
			return tools.ErrorResult(fmt.Sprintf("unknown probe %q", probe)), nil
		}

		tools.LogAudit(auditLog, "telemetry_host", params, "ok", start)
		return tools.TextResult(out), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}

func (s *Service) runHostProbe(ctx context.Context, probe, arg string) (string, bool) {
	switch probe {
	case "name":
		return s.Name(), true
	case "uptime":
		return s.Uptime(ctx), true
	case "loadavg":
		return s.LoadAvg(ctx), true
	case "cpuload":
		return s.CPULoad(ctx), true
	case "cpu":
		return s.CPU(ctx), true
	case "boot":
		return s.Boot(ctx), true
	case "memory":
		return s.Memory(ctx), true
	case "ip":
		return s.IP(), true
	case "reboot":
		return s.Reboot(), true
	case "aptcheck":
		return s.AptCheck(ctx), true
	case "aptcheckbrief":
		return s.AptCheckBrief(ctx), true
	case "temp":
		return s.Temp(arg), true
	case "uname":
		return s.Uname(arg), true
	default:
		return "", false
	}
}
