package api

import (
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/resolvd/resolvd/internal/resolvdconfig"
	"github.com/resolvd/resolvd/internal/stats"
)

// Handler holds the shared state the admin routes read and write.
// Grounded on the teacher's handlers package (one struct per concern,
// methods bound to gin.Context), collapsed into a single struct since
// this surface is five routes, not a whole handlers/ tree.
type Handler struct {
	cfgStore  *resolvdconfig.Store
	stats     *stats.Sink
	startTime time.Time
}

// statEntry is the wire shape for one tagged Stat in the GET /api/statistics
// listing. It flattens Stat's tagged union into optional fields rather than
// exposing the internal Kind enum.
type statEntry struct {
	Tag     string   `json:"tag"`
	Kind    string   `json:"kind"`
	Count   *uint64  `json:"count,omitempty"`
	Average *float64 `json:"average,omitempty"`
}

func kindName(k stats.Kind) string {
	switch k {
	case stats.KindCount:
		return "count"
	case stats.KindAverage:
		return "average"
	case stats.KindRequest:
		return "request"
	case stats.KindCache:
		return "cache"
	default:
		return "unknown"
	}
}

// listStatistics handles GET /api/statistics: every tagged stat currently
// held, plus the uptime the teacher's health handler also reports.
func (h *Handler) listStatistics(c *gin.Context) {
	snapshot := h.stats.Snapshot()
	entries := make([]statEntry, 0, len(snapshot))
	for tag, stat := range snapshot {
		e := statEntry{Tag: tag, Kind: kindName(stat.Kind)}
		switch stat.Kind {
		case stats.KindCount:
			count := stat.Count
			e.Count = &count
		case stats.KindAverage:
			mean := stat.Average.Mean
			e.Average = &mean
		}
		entries = append(entries, e)
	}

	c.JSON(http.StatusOK, gin.H{
		"uptime_seconds": time.Since(h.startTime).Seconds(),
		"statistics":     entries,
	})
}

// statisticByName handles GET /api/statistics/<name>?from=&to=. For the
// reserved name "requests" it returns the paginated request history
// (spec.md §6: "requests paginated newest-first"); for any other name it
// returns the single tagged Stat, ignoring from/to.
func (h *Handler) statisticByName(c *gin.Context) {
	name := c.Param("name")

	if name == "requests" {
		from := parseQueryInt(c, "from", 0)
		to := parseQueryInt(c, "to", 0)
		history := h.stats.RequestHistory(from, to)
		c.JSON(http.StatusOK, gin.H{"requests": history})
		return
	}

	stat, ok := h.stats.Get(name)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"reason": "unknown statistic " + name})
		return
	}

	e := statEntry{Tag: name, Kind: kindName(stat.Kind)}
	switch stat.Kind {
	case stats.KindCount:
		count := stat.Count
		e.Count = &count
	case stats.KindAverage:
		mean := stat.Average.Mean
		e.Average = &mean
	}
	c.JSON(http.StatusOK, e)
}

func parseQueryInt(c *gin.Context, key string, def int) int {
	raw := c.Query(key)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}

// systemStats is the GET /api/system payload: process uptime plus a
// point-in-time host CPU/memory sample.
type systemStats struct {
	UptimeSeconds int64       `json:"uptime_seconds"`
	NumCPU        int         `json:"num_cpu"`
	CPUPercent    float64     `json:"cpu_percent"`
	Memory        memoryStats `json:"memory"`
}

type memoryStats struct {
	TotalMB     float64 `json:"total_mb"`
	UsedMB      float64 `json:"used_mb"`
	UsedPercent float64 `json:"used_percent"`
}

// systemInfo handles GET /api/system: a host resource snapshot, beyond
// spec.md §6's required four routes but within its "external collaborator"
// admin surface — the same panel the teacher's own health handler exposes,
// built the same way (gopsutil cpu/mem sampling over a short window).
func (h *Handler) systemInfo(c *gin.Context) {
	out := systemStats{
		UptimeSeconds: int64(time.Since(h.startTime).Seconds()),
		NumCPU:        runtime.NumCPU(),
	}
	if cpuPercent, err := cpu.Percent(200*time.Millisecond, false); err == nil && len(cpuPercent) > 0 {
		out.CPUPercent = cpuPercent[0]
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		out.Memory = memoryStats{
			TotalMB:     float64(vm.Total) / 1024 / 1024,
			UsedMB:      float64(vm.Used) / 1024 / 1024,
			UsedPercent: vm.UsedPercent,
		}
	}
	c.JSON(http.StatusOK, out)
}

// getConfig handles GET /api/config: the live configuration snapshot.
func (h *Handler) getConfig(c *gin.Context) {
	c.JSON(http.StatusOK, h.cfgStore.Get())
}

// putConfig handles POST /api/config: replaces the live configuration.
// Malformed JSON or a normalization failure is reported as 400 with a
// {"reason": ...} body; success is a bare 200 with no body, exactly
// spec.md §6's wording — the teacher's own PutConfig instead hard-codes
// 501, which this surface cannot do since spec.md names POST /api/config
// as a required route.
func (h *Handler) putConfig(c *gin.Context) {
	var cfg resolvdconfig.Config
	if err := c.ShouldBindJSON(&cfg); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"reason": err.Error()})
		return
	}
	if err := h.cfgStore.Replace(cfg); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"reason": err.Error()})
		return
	}
	c.Status(http.StatusOK)
}
