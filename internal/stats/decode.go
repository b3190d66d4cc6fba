package stats

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

var ErrInvalidRecords = errors.New("records must be a JSON array of objects")

// number is a JSON number that decodes anything non-numeric as zero.
type number float64

func (n *number) UnmarshalJSON(b []byte) error {
	*n = number(coerceNumber(b))
	return nil
}

// int truncates n and saturates it to the int32 range so that the result is the same on every platform.
func (n number) int() int {
	f := math.Trunc(float64(n))
	switch {
	case math.IsNaN(f):
		return 0
	case f >= math.MaxInt32:
		return math.MaxInt32
	case f <= math.MinInt32:
		return math.MinInt32
	}
	return int(f)
}

// text is a JSON string that decodes numbers into their literal and anything else as empty.
type text string

func (t *text) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		*t = ""
		return nil
	}
	switch b[0] {
	case '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			*t = ""
			return nil //nolint:nilerr // malformed strings are treated as missing.
		}
		*t = text(s)
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		*t = text(b)
	default:
		*t = ""
	}
	return nil
}

func coerceNumber(b []byte) float64 {
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return 0
	}
	s := string(b)
	if b[0] == '"' {
		if err := json.Unmarshal(b, &s); err != nil {
			return 0
		}
		s = strings.TrimSpace(s)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

type rawDetail struct {
	Name        text   `json:"name"`
	MuscleGroup text   `json:"muscleGroup"`
	Group       text   `json:"group"`
	Category    text   `json:"category"`
	Series      number `json:"series"`
	Reps        number `json:"reps"`
	Weight      number `json:"weight"`
}

type rawRecord struct {
	ID            text            `json:"id"`
	CompletedAt   json.RawMessage `json:"completedAt"`
	Details       json.RawMessage `json:"details"`
	SeriesByGroup json.RawMessage `json:"seriesByGroup"`
	Series        number          `json:"series"`
	TotalReps     number          `json:"totalReps"`
	TotalVolume   number          `json:"totalVolume"`
	ElapsedTime   number          `json:"elapsedTime"`
	TotalTime     number          `json:"totalTime"`
}

// DecodeRecords decodes a JSON array of workout records.
//
// Decoding is lenient. Only a document that is not an array of objects is an error.
func DecodeRecords(data []byte) ([]WorkoutRecord, error) {
	var elems []json.RawMessage
	if err := json.Unmarshal(data, &elems); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRecords, err)
	}
	records := make([]WorkoutRecord, 0, len(elems))
	for i, elem := range elems {
		record, err := decodeRecord(elem)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		records = append(records, record)
	}
	return records, nil
}

func decodeRecord(data json.RawMessage) (WorkoutRecord, error) {
	if firstByte(data) != '{' {
		return WorkoutRecord{}, ErrInvalidRecords
	}
	var raw rawRecord
	if err := json.Unmarshal(data, &raw); err != nil {
		return WorkoutRecord{}, fmt.Errorf("%w: %w", ErrInvalidRecords, err)
	}

	elapsed := raw.ElapsedTime
	if elapsed == 0 {
		elapsed = raw.TotalTime
	}
	return WorkoutRecord{
		ID:          string(raw.ID),
		CompletedAt: parseCompletedAt(raw.CompletedAt),
		Payload:     decodePayload(raw),
		Series:      raw.Series.int(),
		TotalReps:   raw.TotalReps.int(),
		TotalVolume: float64(raw.TotalVolume),
		ElapsedTime: time.Duration(float64(elapsed) * float64(time.Second)),
	}, nil
}

// decodePayload resolves the payload variant once so that the aggregation never branches on field presence.
func decodePayload(raw rawRecord) Payload {
	if firstByte(raw.Details) == '[' {
		var elems []json.RawMessage
		if err := json.Unmarshal(raw.Details, &elems); err == nil {
			details := make(DetailList, 0, len(elems))
			for _, elem := range elems {
				if firstByte(elem) != '{' {
					continue
				}
				var d rawDetail
				if err = json.Unmarshal(elem, &d); err != nil {
					continue
				}
				details = append(details, ExerciseDetail{
					Name:   string(d.Name),
					Group:  firstNonEmpty(string(d.MuscleGroup), string(d.Group), string(d.Category)),
					Series: d.Series.int(),
					Reps:   d.Reps.int(),
					Weight: float64(d.Weight),
				})
			}
			return details
		}
	}
	if firstByte(raw.SeriesByGroup) == '{' {
		var m map[string]number
		if err := json.Unmarshal(raw.SeriesByGroup, &m); err == nil {
			counts := make(GroupCountMap, len(m))
			for label, n := range m {
				counts[label] = n.int()
			}
			return counts
		}
	}
	return nil
}

var completedAtLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	time.DateOnly,
}

// maxEpochMillis is 9999-12-31T23:59:59.999Z, the last instant with a four digit year.
const maxEpochMillis = 253402300799999

// parseCompletedAt accepts timestamp strings and epoch milliseconds. Anything else, including instants whose UTC
// year does not have four digits, is the zero time.
func parseCompletedAt(data json.RawMessage) time.Time {
	switch firstByte(data) {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return time.Time{}
		}
		for _, layout := range completedAtLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				if y := t.UTC().Year(); y < 0 || y > 9999 {
					return time.Time{}
				}
				return t
			}
		}
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		ms := coerceNumber(data)
		if ms > 0 && ms <= maxEpochMillis {
			return time.UnixMilli(int64(ms)).UTC()
		}
	}
	return time.Time{}
}

func firstByte(data []byte) byte {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return 0
	}
	return data[0]
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

type encodedDetail struct {
	Name        string  `json:"name"`
	MuscleGroup string  `json:"muscleGroup"`
	Series      int     `json:"series"`
	Reps        int     `json:"reps"`
	Weight      float64 `json:"weight"`
}

type encodedRecord struct {
	ID            string          `json:"id"`
	CompletedAt   *string         `json:"completedAt,omitempty"`
	Details       []encodedDetail `json:"details,omitempty"`
	SeriesByGroup map[string]int  `json:"seriesByGroup,omitempty"`
	Series        int             `json:"series"`
	TotalReps     int             `json:"totalReps"`
	TotalVolume   float64         `json:"totalVolume"`
	ElapsedTime   float64         `json:"elapsedTime"`
}

// MarshalJSON encodes the record in the same shape DecodeRecords accepts.
func (r WorkoutRecord) MarshalJSON() ([]byte, error) {
	enc := encodedRecord{
		ID:            r.ID,
		CompletedAt:   nil,
		Details:       nil,
		SeriesByGroup: r.SeriesByGroup(),
		Series:        r.Series,
		TotalReps:     r.TotalReps,
		TotalVolume:   r.TotalVolume,
		ElapsedTime:   r.ElapsedTime.Seconds(),
	}
	if !r.CompletedAt.IsZero() {
		s := r.CompletedAt.Format(time.RFC3339Nano)
		enc.CompletedAt = &s
	}
	if details := r.Details(); details != nil {
		enc.Details = make([]encodedDetail, len(details))
		for i, d := range details {
			enc.Details[i] = encodedDetail{
				Name:        d.Name,
				MuscleGroup: d.Group,
				Series:      d.Series,
				Reps:        d.Reps,
				Weight:      d.Weight,
			}
		}
	}
	b, err := json.Marshal(enc)
	if err != nil {
		return nil, fmt.Errorf("marshal record %s: %w", r.ID, err)
	}
	return b, nil
}
