package control

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const defaultLogLines = 100

// Logs returns the tail of the supervisor's log files for a project.
// service is "frontend", "backend", or "both". Missing log files are not
// an error; "No logs found" is returned only when every source is absent.
func (c *Controller) Logs(name, service string, lines int) (string, error) {
	if _, err := c.dir.Get(name); err != nil {
		return "", err
	}
	if lines <= 0 {
		lines = defaultLogLines
	}

	var roles []string
	switch service {
	case "frontend":
		roles = []string{"frontend"}
	case "backend", "":
		roles = []string{"backend"}
	default:
		roles = []string{"backend", "frontend"}
	}

	logDir := c.sup.LogDir()
	var sections []string
	for _, role := range roles {
		jobName := JobName(name, role)

		outPath := filepath.Join(logDir, jobName+"-out.log")
		if content, ok := tailFile(outPath, lines); ok {
			sections = append(sections, fmt.Sprintf("=== %s stdout ===\n%s", jobName, content))
		}

		errPath := filepath.Join(logDir, jobName+"-error.log")
		if content, ok := tailFile(errPath, lines/2); ok && strings.TrimSpace(content) != "" {
			sections = append(sections, fmt.Sprintf("=== %s stderr ===\n%s", jobName, content))
		}
	}

	if len(sections) == 0 {
		return "No logs found", nil
	}
	return strings.Join(sections, "\n"), nil
}

// tailFile returns the last n lines of a file. The second return is false
// when the file does not exist or cannot be read.
func tailFile(path string, n int) (string, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", false
	}

	lines := strings.Split(string(data), "\n")
	// Drop a trailing empty element from a final newline.
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n"), true
}
