package logger

import (
	"os"
	"strings"
	"testing"

	"go.uber.org/zap"

	"salon-staff/config"
)

func TestNewLogger_Formats(t *testing.T) {
	for _, format := range []string{"json", "console"} {
		l, err := NewLogger(&config.LogConfig{Level: "debug", Format: format})
		if err != nil {
			t.Fatalf("format=%s 应成功: %v", format, err)
		}
		if !l.Core().Enabled(zap.DebugLevel) {
			t.Errorf("format=%s 期望 debug 级别开启", format)
		}
	}
}

func TestNewLogger_InvalidLevel(t *testing.T) {
	if _, err := NewLogger(&config.LogConfig{Level: "loud", Format: "json"}); err == nil {
		t.Error("期望无效日志级别返回错误")
	}
}

func TestNewLogger_OutputPaths(t *testing.T) {
	path := t.TempDir() + "/staff.log"
	l, err := NewLogger(&config.LogConfig{Level: "info", Format: "json", OutputPaths: []string{path}})
	if err != nil {
		t.Fatalf("期望成功: %v", err)
	}
	l.Info("排班已创建")
	_ = l.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("读取日志文件失败: %v", err)
	}
	if !strings.Contains(string(data), `"service":"salon-staff"`) {
		t.Errorf("日志缺少 service 字段: %s", data)
	}
}
