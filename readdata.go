package romcp

import (
	"context"
	"encoding/hex"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/jvjones/postgres-readonly-mcp/internal/mcperr"
)

// ReadData executes a SELECT query and returns up to MaxRows rows.
// The query must pass the security gate; transient driver failures are
// retried per the configured policy before surfacing.
func (p *ReadOnlyMcp) ReadData(ctx context.Context, input ReadDataInput) (*ReadDataOutput, error) {
	startTime := time.Now()

	maxRows := input.MaxRows
	if maxRows == 0 {
		maxRows = p.config.Query.DefaultMaxRows
	}
	if maxRows < 0 {
		return nil, mcperr.NewValidation("max_rows must be positive", "max_rows", strconv.Itoa(input.MaxRows))
	}
	if maxRows > hardMaxRows {
		maxRows = hardMaxRows
	}

	if err := p.gate.Authorize(input.Query); err != nil {
		p.logger.Warn().
			Str("sql", truncateForLog(input.Query, 200)).
			Err(err).
			Msg("query rejected by security gate")
		return nil, err
	}

	if err := p.acquireSlot(ctx, "read_data"); err != nil {
		return nil, err
	}
	defer p.releaseSlot()

	queryTimeout, timeoutRule := p.timeoutMgr.Resolve(input.Query)

	var output *ReadDataOutput
	err := p.runWithRetry(ctx, "read_data", queryTimeout, func(attemptCtx context.Context) error {
		conn, err := p.pool.Acquire(attemptCtx)
		if err != nil {
			return err
		}
		defer conn.Release()

		rows, err := conn.Query(attemptCtx, input.Query)
		if err != nil {
			return err
		}
		output, err = collectRows(rows, maxRows)
		return err
	})
	if err != nil {
		return nil, p.classifyDriverError(err, "read_data", input.Query, queryTimeout)
	}

	output.MaxRows = maxRows
	if output.RowCount == maxRows {
		output.Note = fmt.Sprintf("Results limited to %d rows. Increase max_rows or add a WHERE clause.", maxRows)
	}
	output.Data = p.redactor.Rows(output.Data)

	logEvent := p.logger.Info().
		Str("sql", truncateForLog(input.Query, 200)).
		Dur("duration", time.Since(startTime)).
		Int("row_count", output.RowCount)
	if timeoutRule != "" {
		logEvent = logEvent.Str("timeout_rule", timeoutRule)
	}
	if p.redactor.HasRules() {
		logEvent = logEvent.Bool("redacted", true)
	}
	logEvent.Msg("read_data executed")

	return output, nil
}

// collectRows reads up to maxRows rows from pgx.Rows into a ReadDataOutput.
func collectRows(rows pgx.Rows, maxRows int) (*ReadDataOutput, error) {
	defer rows.Close()

	fieldDescs := rows.FieldDescriptions()
	columns := make([]string, len(fieldDescs))
	for i, fd := range fieldDescs {
		columns[i] = fd.Name
	}

	data := make([]map[string]interface{}, 0)
	for rows.Next() {
		if len(data) >= maxRows {
			// Stop reading; Close discards the remainder server-side.
			break
		}
		values, err := rows.Values()
		if err != nil {
			return nil, err
		}
		row := make(map[string]interface{}, len(columns))
		for i, col := range columns {
			row[col] = convertValue(values[i])
		}
		data = append(data, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &ReadDataOutput{
		Columns:  columns,
		RowCount: len(data),
		Data:     data,
	}, nil
}

// convertValue converts a pgx-returned value to a JSON-friendly Go type.
// Binary values become hex strings; non-finite floats become their
// conventional string spellings since JSON has no representation for them.
func convertValue(v interface{}) interface{} {
	switch val := v.(type) {
	case nil:
		return nil
	case time.Time:
		return val.Format(time.RFC3339Nano)
	case float32:
		return convertFloat(float64(val))
	case float64:
		return convertFloat(val)
	case [16]byte:
		// UUID
		return fmt.Sprintf("%x-%x-%x-%x-%x", val[0:4], val[4:6], val[6:8], val[8:10], val[10:16])
	case []byte:
		// bytea
		return hex.EncodeToString(val)
	case pgtype.Numeric:
		if !val.Valid {
			return nil
		}
		if val.NaN {
			return "NaN"
		}
		b, err := val.MarshalJSON()
		if err != nil {
			return nil
		}
		return string(b)
	case map[string]interface{}:
		result := make(map[string]interface{}, len(val))
		for k, item := range val {
			result[k] = convertValue(item)
		}
		return result
	case []interface{}:
		result := make([]interface{}, len(val))
		for i, item := range val {
			result[i] = convertValue(item)
		}
		return result
	default:
		return val
	}
}

func convertFloat(f float64) interface{} {
	if math.IsNaN(f) {
		return "NaN"
	}
	if math.IsInf(f, 1) {
		return "Infinity"
	}
	if math.IsInf(f, -1) {
		return "-Infinity"
	}
	return f
}

// truncateForLog truncates a string for log output to avoid oversized
// log entries, never splitting a UTF-8 sequence.
func truncateForLog(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	truncateAt := maxLen
	for truncateAt > 0 && s[truncateAt]&0xC0 == 0x80 {
		truncateAt--
	}
	return s[:truncateAt] + "...[truncated]"
}
