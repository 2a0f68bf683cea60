package editor

// Level is the severity of a Notice.
type Level string

const (
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Notice is a transient message for the user. The shell shows it once.
type Notice struct {
	Level   Level  `json:"level"`
	Message string `json:"message"`
}
