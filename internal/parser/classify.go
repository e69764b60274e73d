package parser

import (
	"regexp"
	"strings"
)

var rowProducingRegex = regexp.MustCompile(`(?i)^\s*(WITH|SELECT|SHOW|PRAGMA|DESCRIBE)\b`)

// IsRowProducing — инструкция, от которой ожидается набор строк (по ведущему ключевому слову)
func IsRowProducing(stmt string) bool {
	return rowProducingRegex.MatchString(stmt)
}

// IsCommentOnly — пустая инструкция или каждая непустая строка начинается с "--"
func IsCommentOnly(stmt string) bool {
	for _, line := range strings.Split(stmt, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if !strings.HasPrefix(line, "--") {
			return false
		}
	}
	return true
}
