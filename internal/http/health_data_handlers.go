package httpapi

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"vitalsync/internal/domain"
	"vitalsync/internal/repository"
	"vitalsync/internal/service"
)

// 单次请求体上限（心电电压曲线体积大）
const maxBodyBytes = 32 << 20

// HealthDataHandler 健康数据入库/查询接口
type HealthDataHandler struct {
	ingest     *service.IngestService
	stats      *service.StatsService
	heartRates repository.HeartRateRepository
	ecgs       repository.ECGRepository
	logger     *zap.Logger
}

func NewHealthDataHandler(
	ingest *service.IngestService,
	stats *service.StatsService,
	heartRates repository.HeartRateRepository,
	ecgs repository.ECGRepository,
	logger *zap.Logger,
) *HealthDataHandler {
	return &HealthDataHandler{
		ingest:     ingest,
		stats:      stats,
		heartRates: heartRates,
		ecgs:       ecgs,
		logger:     logger,
	}
}

// ingestEnvelope 入库请求体: {data: [...], deviceInfo: {...}}
type ingestEnvelope struct {
	Data       json.RawMessage    `json:"data"`
	DeviceInfo *domain.DeviceInfo `json:"deviceInfo"`
}

// decodeBatch 结构校验：data 必须存在且为列表，否则整批拒绝、零副作用
func decodeBatch(r *http.Request) ([]json.RawMessage, *domain.DeviceInfo, error) {
	var envelope ingestEnvelope
	if err := readBodyJSON(r, maxBodyBytes, &envelope); err != nil {
		return nil, nil, err
	}
	if len(envelope.Data) == 0 || string(envelope.Data) == "null" {
		return nil, nil, errMissingData
	}
	var raws []json.RawMessage
	if err := json.Unmarshal(envelope.Data, &raws); err != nil {
		return nil, nil, errDataNotList
	}
	return raws, envelope.DeviceInfo, nil
}

var (
	errMissingData = &structureError{"data is required"}
	errDataNotList = &structureError{"data must be a list"}
)

type structureError struct{ msg string }

func (e *structureError) Error() string { return e.msg }

// POST /health-data/heartrate
func (h *HealthDataHandler) IngestHeartRate(w http.ResponseWriter, r *http.Request) {
	raws, info, err := decodeBatch(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, Fail(err.Error()))
		return
	}

	outcome := h.ingest.IngestHeartRates(r.Context(), raws, info)
	writeJSON(w, http.StatusOK, IngestResult{Success: true, Stats: outcome})
}

// POST /health-data/ecg
func (h *HealthDataHandler) IngestECG(w http.ResponseWriter, r *http.Request) {
	raws, info, err := decodeBatch(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, Fail(err.Error()))
		return
	}

	outcome := h.ingest.IngestECGs(r.Context(), raws, info)
	writeJSON(w, http.StatusOK, IngestResult{Success: true, Stats: outcome})
}

// queryFilter 解析 startDate/endDate/limit（闭区间，均可选）
func queryFilter(r *http.Request) (repository.TimeRangeFilter, bool) {
	f := repository.TimeRangeFilter{}

	start, ok := parseTimeParam(r.URL.Query().Get("startDate"))
	if !ok {
		return f, false
	}
	end, ok := parseTimeParam(r.URL.Query().Get("endDate"))
	if !ok {
		return f, false
	}
	f.Start = start
	f.End = end
	f.Limit = parseInt(r.URL.Query().Get("limit"), 0)
	return f, true
}

// GET /health-data/heartrate
func (h *HealthDataHandler) QueryHeartRate(w http.ResponseWriter, r *http.Request) {
	f, ok := queryFilter(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, Fail("invalid startDate or endDate"))
		return
	}

	samples, err := h.heartRates.QueryRange(r.Context(), f)
	if err != nil {
		h.logger.Error("heart-rate query failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail("query failed"))
		return
	}
	if samples == nil {
		samples = []*domain.HeartRateSample{}
	}

	writeJSON(w, http.StatusOK, QueryResult[*domain.HeartRateSample]{
		Success: true,
		Count:   len(samples),
		Data:    samples,
	})
}

// GET /health-data/ecg
func (h *HealthDataHandler) QueryECG(w http.ResponseWriter, r *http.Request) {
	f, ok := queryFilter(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, Fail("invalid startDate or endDate"))
		return
	}

	recordings, err := h.ecgs.QueryRange(r.Context(), f)
	if err != nil {
		h.logger.Error("ecg query failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail("query failed"))
		return
	}
	if recordings == nil {
		recordings = []*domain.ECGRecording{}
	}

	writeJSON(w, http.StatusOK, QueryResult[*domain.ECGRecording]{
		Success: true,
		Count:   len(recordings),
		Data:    recordings,
	})
}

// GET /health-data/stats
func (h *HealthDataHandler) Stats(w http.ResponseWriter, r *http.Request) {
	summary, err := h.stats.Summary(r.Context())
	if err != nil {
		h.logger.Error("stats query failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail("stats query failed"))
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"stats":   summary,
	})
}
