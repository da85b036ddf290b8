package logger

import (
	"encoding/json"
	"io"
	"os"
	"time"
)

// Logger define a interface para logging estruturado.
// A aplicação (Handler, Service, Repository) deve depender apenas desta interface.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Error(msg string, err error)
	Fatal(msg string, err error)
}

// LogEntry define a estrutura de um log para garantir o formato JSON.
type LogEntry struct {
	Timestamp string                 `json:"timestamp"`
	Level     string                 `json:"level"`
	Message   string                 `json:"message"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
	Error     string                 `json:"error,omitempty"`
}

// JSONLogger é a implementação concreta da interface Logger, com saída JSON
// linha a linha no writer configurado.
type JSONLogger struct {
	level int
	out   io.Writer
	exit  func(int) // substituível em testes; os.Exit por padrão
}

var levels = map[string]int{
	"debug": 0,
	"info":  1,
	"error": 2,
	"fatal": 3,
}

// NewLogger cria e retorna uma nova instância do Logger escrevendo em stdout.
// Esta função é chamada no main.go.
func NewLogger(level string) Logger {
	return NewLoggerWithOutput(level, os.Stdout)
}

// NewLoggerWithOutput permite direcionar a saída, útil em testes.
func NewLoggerWithOutput(level string, out io.Writer) Logger {
	lv, ok := levels[level]
	if !ok {
		lv = levels["info"]
	}
	return &JSONLogger{level: lv, out: out, exit: os.Exit}
}

// logf formata a entrada como JSON e a escreve na saída configurada.
func (l *JSONLogger) logf(level, msg string, fields map[string]interface{}, err error) {
	if levels[level] < l.level {
		return
	}

	entry := LogEntry{
		Timestamp: time.Now().Format(time.RFC3339),
		Level:     level,
		Message:   msg,
		Fields:    fields,
	}
	if err != nil {
		entry.Error = err.Error()
	}

	jsonBytes, _ := json.Marshal(entry)
	jsonBytes = append(jsonBytes, '\n')
	l.out.Write(jsonBytes)

	if level == "fatal" {
		l.exit(1)
	}
}

func (l *JSONLogger) Debug(msg string, fields map[string]interface{}) {
	l.logf("debug", msg, fields, nil)
}

func (l *JSONLogger) Info(msg string, fields map[string]interface{}) {
	l.logf("info", msg, fields, nil)
}

func (l *JSONLogger) Error(msg string, err error) {
	l.logf("error", msg, nil, err)
}

func (l *JSONLogger) Fatal(msg string, err error) {
	l.logf("fatal", msg, nil, err)
}
