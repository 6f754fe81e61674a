package telemetry

import "github.com/nicktill/tinyrec/pkg/metrics"

// APIVersion is reported by Information when asked
const APIVersion = 1

// StatusRequest selects which current readings to return
type StatusRequest struct {
	HeapSize          bool `json:"heapSize"`
	MemorySize        bool `json:"memorySize"`
	AvailableResource bool `json:"availableResource"`
}

// StatusResponse carries the requested readings; others are nil
type StatusResponse struct {
	HeapSize          *uint64 `json:"heapSize,omitempty"`
	MemorySize        *uint64 `json:"memorySize,omitempty"`
	AvailableResource *uint64 `json:"availableResource,omitempty"`
}

// MetricsRequest is a QueryMetrics call folded into Information
type MetricsRequest struct {
	FromMillis  int64               `json:"fromMillis"`
	ToMillis    int64               `json:"toMillis"`
	Granularity metrics.Granularity `json:"granularity"`
}

// InformationRequest combines the read calls a dashboard makes on load
type InformationRequest struct {
	Version bool            `json:"version"`
	Status  *StatusRequest  `json:"status,omitempty"`
	Metrics *MetricsRequest `json:"metrics,omitempty"`
}

// InformationResponse answers only the parts that were requested
type InformationResponse struct {
	Version *int            `json:"version,omitempty"`
	Status  *StatusResponse `json:"status,omitempty"`
	Metrics *metrics.Result `json:"metrics,omitempty"`
}

// Status reads current resource usage. The supplier is only called when at
// least one reading is requested.
func (r *Recorder) Status(req StatusRequest) StatusResponse {
	var resp StatusResponse
	if !req.HeapSize && !req.MemorySize && !req.AvailableResource {
		return resp
	}

	s := r.supplier.Sample()
	if req.HeapSize {
		resp.HeapSize = &s.HeapSize
	}
	if req.MemorySize {
		resp.MemorySize = &s.MemorySize
	}
	if req.AvailableResource {
		resp.AvailableResource = &s.AvailableResource
	}
	return resp
}

// Information answers a combined request
func (r *Recorder) Information(req InformationRequest) (InformationResponse, error) {
	var resp InformationResponse

	if req.Version {
		v := APIVersion
		resp.Version = &v
	}
	if req.Status != nil {
		status := r.Status(*req.Status)
		resp.Status = &status
	}
	if req.Metrics != nil {
		result, err := r.QueryMetrics(req.Metrics.FromMillis, req.Metrics.ToMillis, req.Metrics.Granularity)
		if err != nil {
			return InformationResponse{}, err
		}
		resp.Metrics = &result
	}
	return resp, nil
}
