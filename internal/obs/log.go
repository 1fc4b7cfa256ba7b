package obs

import (
	"encoding/json"
	"log"
	"os"
	"sync"
)

// One JSON object per line on stdout. The access log, the audit trail
// and the lockout tracker all share this writer, so collectors ingest
// the whole stream with a single parser configuration.
var (
	initLogger sync.Once
	lineLogger *log.Logger
)

// Logger returns the shared line logger. Tests redirect it with
// SetOutput and restore the writer afterwards.
func Logger() *log.Logger {
	initLogger.Do(func() {
		lineLogger = log.New(os.Stdout, "", 0)
	})
	return lineLogger
}

// LogRequest marshals the entry onto a single line. A request must
// never fail because its log entry could not be encoded, so marshal
// errors degrade to a fixed fallback line instead of propagating.
func LogRequest(entry map[string]any) {
	line, err := json.Marshal(entry)
	if err != nil {
		Logger().Println(`{"level":"error","type":"log","msg":"entry not encodable"}`)
		return
	}
	Logger().Println(string(line))
}
