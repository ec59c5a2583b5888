package config

import (
	"os"

	"github.com/pkg/errors"
	"github.com/thoas/go-funk"
	"gopkg.in/yaml.v3"
)

// 启动方式, 决定空白磁盘在内存中使用的分区表类型.
const (
	FirmwareAuto   = "auto"
	FirmwareEFI    = "efi"
	FirmwareLegacy = "legacy"
)

// Candidates 未指定配置文件时依次尝试的路径.
var Candidates = []string{
	"/etc/deepin-installer/partman.yaml",
	"partman.yaml",
}

type Config struct {
	Log      Log      `yaml:"log"`
	Scan     Scan     `yaml:"scan"`
	Executor Executor `yaml:"executor"`
	Script   Script   `yaml:"script"`
	Server   Server   `yaml:"server"`
}

type Log struct {
	Level string `yaml:"level"`
	// File 为空时只输出到标准输出.
	File string `yaml:"file,omitempty"`
}

type Scan struct {
	// Firmware auto 时按 /sys/firmware/efi 判断.
	Firmware      string `yaml:"firmware"`
	SkipRemovable bool   `yaml:"skip_removable"`
	OsProber      string `yaml:"os_prober"`
}

type Executor struct {
	// DryRun 只记录修改磁盘的命令, 不实际执行.
	DryRun    bool   `yaml:"dry_run"`
	Parted    string `yaml:"parted"`
	Partprobe string `yaml:"partprobe"`
}

type Script struct {
	Shell string `yaml:"shell"`
}

type Server struct {
	Listen string `yaml:"listen"`
	PProf  bool   `yaml:"pprof"`
}

var defaultConfig = Config{
	Log:      Log{Level: "info"},
	Scan:     Scan{Firmware: FirmwareAuto, OsProber: "os-prober"},
	Executor: Executor{Parted: "parted", Partprobe: "partprobe"},
	Script:   Script{Shell: "bash"},
	Server:   Server{Listen: "127.0.0.1:8750"},
}

// Default 返回默认配置.
func Default() *Config {
	cfg := defaultConfig
	return &cfg
}

// Load 读取配置文件, path 为空时依次尝试 Candidates, 都不存在则使用默认配置.
// 文件中缺失的字段取默认值.
func Load(path string) (*Config, error) {
	if path == "" {
		for _, c := range Candidates {
			if _, err := os.Stat(c); err == nil {
				path = c
				break
			}
		}
	}
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read config %s", path)
	}
	return Parse(data)
}

// Parse 解析YAML格式的配置内容.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(err, "decode config")
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyDefaults 显式写成空串的字段恢复为默认值.
func (c *Config) applyDefaults() {
	setDefault(&c.Log.Level, defaultConfig.Log.Level)
	setDefault(&c.Scan.Firmware, defaultConfig.Scan.Firmware)
	setDefault(&c.Scan.OsProber, defaultConfig.Scan.OsProber)
	setDefault(&c.Executor.Parted, defaultConfig.Executor.Parted)
	setDefault(&c.Executor.Partprobe, defaultConfig.Executor.Partprobe)
	setDefault(&c.Script.Shell, defaultConfig.Script.Shell)
	setDefault(&c.Server.Listen, defaultConfig.Server.Listen)
}

func setDefault(field *string, value string) {
	if *field == "" {
		*field = value
	}
}

func (c *Config) Validate() error {
	if !funk.ContainsString([]string{FirmwareAuto, FirmwareEFI, FirmwareLegacy}, c.Scan.Firmware) {
		return errors.Errorf("scan.firmware must be auto, efi or legacy, got %q", c.Scan.Firmware)
	}
	return nil
}

// EFI 按配置判断是否以UEFI方式启动, auto 时调用 detect.
func (c *Config) EFI(detect func() bool) bool {
	switch c.Scan.Firmware {
	case FirmwareEFI:
		return true
	case FirmwareLegacy:
		return false
	}
	return detect()
}
