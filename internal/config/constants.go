// internal/config/constants.go
package config

// アプリケーション情報
const (
	AppName    = "ScanRead"
	AppVersion = "0.3.1"
)

// デフォルト設定値
const (
	DefaultServerPort     = ":8080"
	DefaultLogLevel       = "info"
	DefaultLocalStorePath = "scan_read_local.db"
	DefaultHistoryLimit   = 10 // 解析履歴の保持件数(古いものから破棄)
	DefaultAnalyzerType   = "stub"
	DefaultSpeechType     = "stub"
	DefaultMailerType     = "log"
)
