package logger_test

import (
	"bytes"
	"encoding/json"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/papercomputeco/scribe/pkg/logger"
)

func parseLine(buf *bytes.Buffer) map[string]any {
	var parsed map[string]any
	ExpectWithOffset(1, json.Unmarshal([]byte(strings.TrimSpace(buf.String())), &parsed)).To(Succeed())
	return parsed
}

var _ = Describe("Logger", func() {
	Describe("New", func() {
		It("creates a console logger", func() {
			var buf bytes.Buffer
			l := logger.New(logger.WithWriter(&buf), logger.WithColor(false))
			l.Info("hello", zap.String("key", "value"))

			output := buf.String()
			Expect(output).To(ContainSubstring("INFO"))
			Expect(output).To(ContainSubstring("hello"))
			Expect(output).To(ContainSubstring(`"key": "value"`))
		})

		It("respects debug level", func() {
			var buf bytes.Buffer
			l := logger.New(logger.WithWriter(&buf), logger.WithDebug(true))
			l.Debug("debug msg")

			Expect(buf.String()).To(ContainSubstring("debug msg"))
		})

		It("filters debug when not enabled", func() {
			var buf bytes.Buffer
			l := logger.New(logger.WithWriter(&buf), logger.WithDebug(false))
			l.Debug("hidden")

			Expect(buf.String()).To(BeEmpty())
		})

		It("parses textual levels", func() {
			var buf bytes.Buffer
			l := logger.New(logger.WithWriter(&buf), logger.WithLevel("warn"))
			l.Info("hidden")
			l.Warn("shown")

			Expect(buf.String()).NotTo(ContainSubstring("hidden"))
			Expect(buf.String()).To(ContainSubstring("shown"))
		})

		It("ignores unknown levels", func() {
			l := logger.New(logger.WithWriter(&bytes.Buffer{}), logger.WithLevel("loud"))
			Expect(l.Core().Enabled(zapcore.InfoLevel)).To(BeTrue())
			Expect(l.Core().Enabled(zapcore.DebugLevel)).To(BeFalse())
		})

		It("creates a JSON logger", func() {
			var buf bytes.Buffer
			l := logger.New(logger.WithWriter(&buf), logger.WithJSON(true))
			l.Info("structured", zap.Int("count", 42))

			parsed := parseLine(&buf)
			Expect(parsed["msg"]).To(Equal("structured"))
			Expect(parsed["level"]).To(Equal("info"))
			Expect(parsed["count"]).To(BeNumerically("==", 42))
			Expect(parsed).To(HaveKey("time"))
		})

		It("supports multiple writers", func() {
			var buf1, buf2 bytes.Buffer
			l := logger.New(logger.WithWriters(&buf1, &buf2))
			l.Info("multi")

			Expect(buf1.String()).To(ContainSubstring("multi"))
			Expect(buf2.String()).To(ContainSubstring("multi"))
		})

		It("binds fields to child loggers", func() {
			var buf bytes.Buffer
			l := logger.New(logger.WithWriter(&buf), logger.WithJSON(true))
			l.With(zap.String("request_id", "abc")).Info("started")

			parsed := parseLine(&buf)
			Expect(parsed["request_id"]).To(Equal("abc"))
			Expect(parsed["msg"]).To(Equal("started"))
		})

		It("adds the caller when asked", func() {
			var buf bytes.Buffer
			l := logger.New(logger.WithWriter(&buf), logger.WithJSON(true), logger.WithCaller(true))
			l.Info("where")

			Expect(parseLine(&buf)["caller"]).To(ContainSubstring("logger_test.go"))
		})
	})

	Describe("NewLoggerWithWriters", func() {
		It("writes to every writer at debug level", func() {
			var a, b bytes.Buffer
			l := logger.NewLoggerWithWriters(true, &a, &b)
			l.Debug("both")

			Expect(a.String()).To(ContainSubstring("both"))
			Expect(b.String()).To(ContainSubstring("both"))
		})
	})

	Describe("Nop", func() {
		It("discards all output", func() {
			l := logger.Nop()
			Expect(func() {
				l.Debug("msg")
				l.Error("msg", zap.Error(nil))
				l.With(zap.String("k", "v")).Info("msg")
			}).NotTo(Panic())
			Expect(l.Core().Enabled(zapcore.ErrorLevel)).To(BeFalse())
		})
	})
})
