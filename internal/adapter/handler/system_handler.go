package handler

import (
	"runtime"

	"github.com/srgjo27/ticketchief/internal/platform/httpwire"
)

type memoryResponse struct {
	MemoryUsage float64 `json:"memoryUsage"`
}

// Snowmon reports the fraction of heap memory obtained from the OS that is
// currently in use.
func Snowmon(*httpwire.Request) *httpwire.Response {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	var usage float64
	if ms.HeapSys > 0 {
		usage = float64(ms.HeapInuse) / float64(ms.HeapSys)
	}
	return httpwire.JSON(httpwire.StatusOK, memoryResponse{MemoryUsage: usage})
}
