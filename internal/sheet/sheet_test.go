package sheet

import (
	"strings"
	"testing"
)

func TestTruncateCell(t *testing.T) {
	short := strings.Repeat("あ", 100)
	if got := truncateCell(short); got != short {
		t.Errorf("short value was modified")
	}

	long := strings.Repeat("あ", cellCap+500)
	got := truncateCell(long)
	if n := len([]rune(got)); n > cellCap {
		t.Errorf("truncated cell is %d runes, cap %d", n, cellCap)
	}
	if !strings.HasSuffix(got, "...(truncated)") {
		t.Errorf("truncated cell %q... missing marker", got[:20])
	}
}

func TestColumnLetter(t *testing.T) {
	tests := []struct {
		col  int
		want string
	}{
		{0, "A"},
		{1, "B"},
		{ColStatus, "O"},
		{ColFuncTag, "Q"},
		{25, "Z"},
		{26, "AA"},
		{27, "AB"},
	}
	for _, tt := range tests {
		if got := columnLetter(tt.col); got != tt.want {
			t.Errorf("columnLetter(%d) = %q, want %q", tt.col, got, tt.want)
		}
	}
}

func TestIsPending(t *testing.T) {
	mk := func(summary, status, videoURL string) []string {
		row := make([]string, columnCount)
		row[ColSourceSummary] = summary
		row[ColStatus] = status
		row[ColVideoURL] = videoURL
		return row
	}

	tests := []struct {
		name string
		row  []string
		want bool
	}{
		{"blank status with summary", mk("相談内容", "", ""), true},
		{"pending", mk("相談内容", StatusPending, ""), true},
		{"pending lowercase", mk("相談内容", "pending", ""), true},
		{"no summary", mk("", StatusPending, ""), false},
		{"completed", mk("相談内容", StatusCompleted, ""), false},
		{"error", mk("相談内容", StatusError, ""), false},
		{"approval pending, no video yet", mk("相談内容", StatusApprovalPendingScript, ""), true},
		{"approval pending, video exists", mk("相談内容", StatusApprovalPendingScript, "https://drive"), false},
		{"approved, awaiting production", mk("相談内容", StatusApprovedScript, ""), true},
		{"short row", []string{"", "", "相談内容"}, true},
		{"empty row", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isPending(tt.row); got != tt.want {
				t.Errorf("isPending = %v, want %v", got, tt.want)
			}
		})
	}
}
