package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	Paths      PathsConfig      `mapstructure:"paths"`
	Runtime    RuntimeConfig    `mapstructure:"runtime"`
	Phonemizer PhonemizerConfig `mapstructure:"phonemizer"`
	TTS        TTSConfig        `mapstructure:"tts"`
	Server     ServerConfig     `mapstructure:"server"`
	LogLevel   string           `mapstructure:"log_level"`
}

type PathsConfig struct {
	ModelPath     string `mapstructure:"model_path"`
	VoiceManifest string `mapstructure:"voice_manifest"`
}

type RuntimeConfig struct {
	ORTLibraryPath string `mapstructure:"ort_library_path"`
	ORTAPIVersion  int    `mapstructure:"ort_api_version"`
}

type PhonemizerConfig struct {
	ExecutablePath string `mapstructure:"executable_path"`
	DataDir        string `mapstructure:"data_dir"`
	Language       string `mapstructure:"language"`
}

type TTSConfig struct {
	Voice string  `mapstructure:"voice"`
	Speed float64 `mapstructure:"speed"`
}

type ServerConfig struct {
	ListenAddr     string        `mapstructure:"listen_addr"`
	MaxTextBytes   int           `mapstructure:"max_text_bytes"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

type LoadOptions struct {
	Cmd        flagBinder
	ConfigFile string
	Defaults   Config
}

type flagBinder interface {
	Flags() *pflag.FlagSet
}

func DefaultConfig() Config {
	return Config{
		Paths: PathsConfig{
			ModelPath:     "models/kokoro.onnx",
			VoiceManifest: "voices/voices.json",
		},
		Runtime: RuntimeConfig{
			ORTLibraryPath: "",
			ORTAPIVersion:  23,
		},
		Phonemizer: PhonemizerConfig{
			ExecutablePath: "espeak-ng",
			DataDir:        "",
			Language:       "en-us",
		},
		TTS: TTSConfig{
			Voice: "af_heart",
			Speed: 1.0,
		},
		Server: ServerConfig{
			ListenAddr:     ":8080",
			MaxTextBytes:   1 << 16,
			RequestTimeout: 60 * time.Second,
		},
		LogLevel: "info",
	}
}

func RegisterFlags(fs *pflag.FlagSet, defaults Config) {
	fs.String("paths-model-path", defaults.Paths.ModelPath, "Path to ONNX model")
	fs.String("paths-voice-manifest", defaults.Paths.VoiceManifest, "Path to voice manifest JSON")
	fs.String("runtime-ort-library-path", defaults.Runtime.ORTLibraryPath, "Path to ONNX Runtime shared library")
	fs.String("ort-lib", defaults.Runtime.ORTLibraryPath, "Path to ONNX Runtime shared library (alias for --runtime-ort-library-path)")
	fs.Int("runtime-ort-api-version", defaults.Runtime.ORTAPIVersion, "ONNX Runtime C API version")
	fs.String("phonemizer-executable-path", defaults.Phonemizer.ExecutablePath, "Path to espeak-ng executable")
	fs.String("phonemizer-data-dir", defaults.Phonemizer.DataDir, "espeak-ng data directory (sets ESPEAK_DATA_PATH)")
	fs.String("phonemizer-language", defaults.Phonemizer.Language, "Default phonemization language")
	fs.String("tts-voice", defaults.TTS.Voice, "Default voice id")
	fs.Float64("tts-speed", defaults.TTS.Speed, "Default speaking speed multiplier")
	fs.String("server-listen-addr", defaults.Server.ListenAddr, "HTTP listen address")
	fs.Int("server-max-text-bytes", defaults.Server.MaxTextBytes, "Maximum request text size in bytes")
	fs.Duration("server-request-timeout", defaults.Server.RequestTimeout, "Per-request synthesis timeout")
	fs.String("log-level", defaults.LogLevel, "Log level (debug|info|warn|error)")
}

func Load(opts LoadOptions) (Config, error) {
	v := viper.New()

	setDefaults(v, opts.Defaults)
	if opts.Cmd != nil {
		if err := v.BindPFlags(opts.Cmd.Flags()); err != nil {
			return Config{}, fmt.Errorf("bind flags: %w", err)
		}
	}
	registerAliases(v)

	v.SetEnvPrefix("KOKOROTTS")
	replacer := strings.NewReplacer("-", "_", ".", "_", "__", "_")
	v.SetEnvKeyReplacer(replacer)
	if err := v.BindEnv("runtime.ort_library_path", "KOKOROTTS_ORT_LIB", "ORT_LIBRARY_PATH"); err != nil {
		return Config{}, fmt.Errorf("bind ort env vars: %w", err)
	}
	if err := v.BindEnv("phonemizer.data_dir", "KOKOROTTS_ESPEAK_DATA", "ESPEAK_DATA_PATH"); err != nil {
		return Config{}, fmt.Errorf("bind espeak env vars: %w", err)
	}
	v.AutomaticEnv()

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	} else {
		v.SetConfigName("kokorotts")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper, c Config) {
	v.SetDefault("paths.model_path", c.Paths.ModelPath)
	v.SetDefault("paths.voice_manifest", c.Paths.VoiceManifest)
	v.SetDefault("runtime.ort_library_path", c.Runtime.ORTLibraryPath)
	v.SetDefault("runtime.ort_api_version", c.Runtime.ORTAPIVersion)
	v.SetDefault("phonemizer.executable_path", c.Phonemizer.ExecutablePath)
	v.SetDefault("phonemizer.data_dir", c.Phonemizer.DataDir)
	v.SetDefault("phonemizer.language", c.Phonemizer.Language)
	v.SetDefault("tts.voice", c.TTS.Voice)
	v.SetDefault("tts.speed", c.TTS.Speed)
	v.SetDefault("server.listen_addr", c.Server.ListenAddr)
	v.SetDefault("server.max_text_bytes", c.Server.MaxTextBytes)
	v.SetDefault("server.request_timeout", c.Server.RequestTimeout)
	v.SetDefault("log_level", c.LogLevel)
}

func registerAliases(v *viper.Viper) {
	v.RegisterAlias("paths.model_path", "paths-model-path")
	v.RegisterAlias("paths.voice_manifest", "paths-voice-manifest")
	v.RegisterAlias("runtime.ort_library_path", "runtime-ort-library-path")
	v.RegisterAlias("runtime.ort_library_path", "ort-lib")
	v.RegisterAlias("runtime.ort_api_version", "runtime-ort-api-version")
	v.RegisterAlias("phonemizer.executable_path", "phonemizer-executable-path")
	v.RegisterAlias("phonemizer.data_dir", "phonemizer-data-dir")
	v.RegisterAlias("phonemizer.language", "phonemizer-language")
	v.RegisterAlias("tts.voice", "tts-voice")
	v.RegisterAlias("tts.speed", "tts-speed")
	v.RegisterAlias("server.listen_addr", "server-listen-addr")
	v.RegisterAlias("server.max_text_bytes", "server-max-text-bytes")
	v.RegisterAlias("server.request_timeout", "server-request-timeout")
	v.RegisterAlias("log_level", "log-level")
}
