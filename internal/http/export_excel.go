package httpapi

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"vitalsync/internal/domain"
)

// HeartRateExportHeader 心率导出表头
var HeartRateExportHeader = []string{
	"Timestamp",
	"Heart Rate (BPM)",
	"Source Device",
	"Device Model",
	"OS Version",
	"App Version",
	"Metadata",
}

// GET /health-data/heartrate/export
// 与查询接口相同的 startDate/endDate/limit 参数，输出 .xlsx 附件
func (h *HealthDataHandler) ExportHeartRateExcel(w http.ResponseWriter, r *http.Request) {
	f, ok := queryFilter(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, Fail("invalid startDate or endDate"))
		return
	}

	samples, err := h.heartRates.QueryRange(r.Context(), f)
	if err != nil {
		h.logger.Error("heart-rate export query failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail("export failed"))
		return
	}

	data, err := generateHeartRateExcel(samples)
	if err != nil {
		h.logger.Error("heart-rate export generation failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail("export failed"))
		return
	}

	filename := fmt.Sprintf("heart-rate-%s.xlsx", time.Now().UTC().Format("20060102-150405"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	_, _ = w.Write(data)
}

// generateHeartRateExcel 生成心率导出 Excel 文件
func generateHeartRateExcel(samples []*domain.HeartRateSample) ([]byte, error) {
	f := excelize.NewFile()
	// Note: Don't defer Close() here, because WriteTo needs the file to be open

	sheetName := "Heart Rate"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6F3FF"},
			Pattern: 1,
		},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	for col, header := range HeartRateExportHeader {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := f.SetCellValue(sheetName, cell, header); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set header cell %s: %w", cell, err)
		}
		if err := f.SetCellStyle(sheetName, cell, cell, headerStyle); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set header style: %w", err)
		}
	}

	columnWidths := []float64{
		26, // Timestamp
		16, // Heart Rate
		20, // Source Device
		18, // Device Model
		14, // OS Version
		14, // App Version
		40, // Metadata
	}
	for i := range HeartRateExportHeader {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to convert column number: %w", err)
		}
		if err := f.SetColWidth(sheetName, col, col, columnWidths[i]); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set column width: %w", err)
		}
	}

	for rowIdx, s := range samples {
		row := rowIdx + 2 // 第1行是表头
		var model, osVersion, appVersion string
		if s.DeviceInfo != nil {
			model = s.DeviceInfo.Model
			osVersion = s.DeviceInfo.OSVersion
			appVersion = s.DeviceInfo.AppVersion
		}
		values := []any{
			s.Timestamp.UTC().Format("2006-01-02 15:04:05.000"),
			s.HeartRate,
			s.SourceDevice,
			model,
			osVersion,
			appVersion,
			s.MetadataJSON,
		}
		for colIdx, value := range values {
			cell, err := excelize.CoordinatesToCellName(colIdx+1, row)
			if err != nil {
				f.Close()
				return nil, fmt.Errorf("failed to convert coordinates: %w", err)
			}
			if err := f.SetCellValue(sheetName, cell, value); err != nil {
				f.Close()
				return nil, fmt.Errorf("failed to set cell value at row %d, col %d: %w", row, colIdx+1, err)
			}
		}
	}

	// 冻结表头
	if err := f.SetPanes(sheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to freeze panes: %w", err)
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write to buffer: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("failed to close file: %w", err)
	}

	return buf.Bytes(), nil
}
