package spectree

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/starford/millwork/internal/parser"
)

// SequencePrefix maps a run type to the letter its cabinets are numbered with.
func SequencePrefix(runType string) string {
	switch strings.ToLower(strings.TrimSpace(runType)) {
	case "base", "island":
		return "B"
	case "wall":
		return "W"
	case "tall":
		return "T"
	}
	return "C"
}

// NextSequence returns one more than the highest number already used by a
// cabinet named {prefix}{N} in run. Gaps left by deletions are not reused.
func NextSequence(run *Node, prefix string) int {
	re := regexp.MustCompile(`(?i)^` + regexp.QuoteMeta(prefix) + `(\d+)$`)
	highest := 0
	for _, c := range run.Children {
		if c.Type != KindCabinet {
			continue
		}
		m := re.FindStringSubmatch(strings.TrimSpace(c.Name))
		if m == nil {
			continue
		}
		if n, err := strconv.Atoi(m[1]); err == nil && n > highest {
			highest = n
		}
	}
	return highest + 1
}

// AutoName gives cab the run's next sequential name. Code-shaped typed text
// (B24, W3012) moves into the code field unless a code is already set;
// other typed text is dropped. When the code is recognised, type, width and
// default dimensions the cabinet does not already carry are filled in.
func AutoName(run, cab *Node) {
	attrs := cab.Cabinet()
	if attrs == nil {
		return
	}
	var runType string
	if ra := run.Run(); ra != nil {
		runType = ra.RunType
	}
	prefix := SequencePrefix(runType)
	seq := NextSequence(run, prefix)

	typed := strings.ToUpper(strings.TrimSpace(cab.Name))
	if attrs.Code == "" && parser.LooksLikeCode(typed) {
		attrs.Code = typed
	}
	cab.Name = prefix + strconv.Itoa(seq)
	attrs.PositionInRun = seq

	if attrs.Code != "" {
		ApplyCode(attrs, attrs.Code, presentFields(attrs))
	}
}
