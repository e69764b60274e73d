package parser

import (
	"strings"
)

// QuoteState — состояние сканера относительно строковых литералов.
// Одновременно открытыми одинарная и двойная кавычки быть не могут.
type QuoteState int

const (
	StateCode QuoteState = iota
	StateSingle
	StateDouble
)

func (s QuoteState) String() string {
	switch s {
	case StateSingle:
		return "single-quoted"
	case StateDouble:
		return "double-quoted"
	default:
		return "code"
	}
}

// Scanner делит поток символов на SQL-инструкции по ';' вне кавычек.
// Это эвристика, а не токенизатор SQL: экранирование '' внутри литерала,
// комментарии (-- и /* */) и dollar-quoting не распознаются.
// Точка с запятой внутри строки комментария -- тоже разделяет инструкции.
type Scanner struct {
	state QuoteState
	buf   strings.Builder
}

// NewScanner создаёт сканер в состоянии StateCode
func NewScanner() *Scanner {
	return &Scanner{}
}

// State возвращает текущее состояние кавычек
func (s *Scanner) State() QuoteState {
	return s.state
}

// Feed добавляет текст и возвращает инструкции, завершённые внутри него.
// Пустые после trim инструкции не возвращаются.
func (s *Scanner) Feed(text string) []string {
	var out []string
	for _, ch := range text {
		switch ch {
		case '\'':
			switch s.state {
			case StateCode:
				s.state = StateSingle
			case StateSingle:
				s.state = StateCode
			}
		case '"':
			switch s.state {
			case StateCode:
				s.state = StateDouble
			case StateDouble:
				s.state = StateCode
			}
		case ';':
			if s.state == StateCode {
				if stmt := strings.TrimSpace(s.buf.String()); stmt != "" {
					out = append(out, stmt)
				}
				s.buf.Reset()
				continue
			}
		}
		s.buf.WriteRune(ch)
	}
	return out
}

// Flush возвращает хвост без завершающей ';' и сбрасывает сканер
func (s *Scanner) Flush() string {
	tail := strings.TrimSpace(s.buf.String())
	s.buf.Reset()
	s.state = StateCode
	return tail
}

// Split разбивает скрипт на инструкции в исходном порядке
func Split(script string) []string {
	sc := NewScanner()
	stmts := sc.Feed(Normalize(script))
	if tail := sc.Flush(); tail != "" {
		stmts = append(stmts, tail)
	}
	return stmts
}

// Normalize удаляет UTF-8 BOM и приводит переводы строк к \n
func Normalize(script string) string {
	script = strings.TrimPrefix(script, "\uFEFF")
	script = strings.ReplaceAll(script, "\r\n", "\n")
	return strings.ReplaceAll(script, "\r", "\n")
}
