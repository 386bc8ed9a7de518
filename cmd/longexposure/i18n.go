package main

import (
	"github.com/ideamans/go-l10n"
)

func init() {
	// Register Japanese translations for CLI messages.
	l10n.Register("ja", l10n.LexiconMap{
		// Flag categories
		"Input and Output": "入出力",
		"Encoding":         "エンコード",
		"Collaborators":    "外部ツール",
		"Debug":            "デバッグ",
		"Logging":          "ログ",

		// Root command
		"Turn a video into a long-exposure trail video": "動画を長時間露光風の軌跡動画に変換",
		"Every output frame is the source frames so far laid over each other. Press Ctrl+C once to stop early and keep a playable output.": "出力の各フレームは、それまでのソースフレームを重ね合わせたものです。Ctrl+C を一度押すと途中で停止し、再生可能な出力を残します。",

		// Flags
		"YAML configuration file":                                 "YAML設定ファイル",
		"Output execution summary to file (Markdown format)":      "実行サマリーをファイルに出力（Markdown形式）",
		"Output frame rate (0 = source frame rate)":               "出力フレームレート（0 = ソースと同じ）",
		"Output video codec passed to ffmpeg":                     "ffmpeg に渡す出力動画コーデック",
		"Output pixel format (empty = codec default)":             "出力ピクセル形式（空 = コーデック既定）",
		"How long to wait for the encoder after a failure":        "失敗時にエンコーダの終了を待つ時間",
		"Fail when the source has fewer frames than reported":     "ソースのフレーム数が報告値より少ない場合に失敗する",
		"Path to ffmpeg (falls back to FFMPEG_PATH, then PATH)":   "ffmpeg のパス（FFMPEG_PATH、PATH の順に検索）",
		"Path to ffprobe (falls back to FFPROBE_PATH, then PATH)": "ffprobe のパス（FFPROBE_PATH、PATH の順に検索）",
		"Metadata probe (auto, ffprobe, mp4)":                     "メタデータ解析方式（auto, ffprobe, mp4）",
		"Enable debug output":                                     "デバッグ出力を有効化",
		"Directory for debug output":                              "デバッグ出力のディレクトリ",
		"Save debug frames without the frame number label":        "デバッグフレームにフレーム番号を描画しない",
		"Log level (debug, info, warn, error)":                    "ログレベル（debug, info, warn, error）",
		"Log format (text, json)":                                 "ログ形式（text, json）",
		"Suppress all log output":                                 "全てのログ出力を抑制",

		// Error messages
		"Expected INPUT and OUTPUT arguments": "INPUT と OUTPUT の引数が必要です",
		"Failed to write summary: %s":         "サマリーの書き込みに失敗しました: %s",

		// Summary content
		"Long Exposure Summary": "長時間露光サマリー",
		"Status":                "状態",
		"Completed":             "完了",
		"Cancelled":             "中断",
		"Truncated":             "途中終了",
		"Failed":                "失敗",
		"Source":                "ソース",
		"Settings":              "設定",
		"Run":                   "実行",
		"Output":                "出力",
		"Item":                  "項目",
		"Value":                 "値",
		"Path":                  "パス",
		"Dimensions":            "サイズ",
		"Frame Rate":            "フレームレート",
		"Frames":                "フレーム数",
		"Codec":                 "コーデック",
		"FPS":                   "FPS",
		"Pixel Format":          "ピクセル形式",
		"Probe":                 "解析方式",
		"Strict Frame Count":    "厳密なフレーム数",
		"Yes":                   "はい",
		"Frames Written":        "書き込みフレーム数",
		"Elapsed":               "経過時間",
		"File Size":             "ファイルサイズ",
		"Frames in Container":   "コンテナ内フレーム数",
		"N/A":                   "N/A",
		"Generated at":          "生成日時",
	})
}
