package logger

import "github.com/ideamans/go-l10n"

func init() {
	l10n.Register("ja", l10n.LexiconMap{
		// Driver level messages (info)
		"Probing %s": "%s を解析中",
		"Source: %dx%d, %d frames at %s fps (%s)":               "ソース: %dx%d, %d フレーム, %s fps (%s)",
		"Encoding to %s with %s":                                "%s に %s でエンコード中",
		"Frame %d/%d":                                           "フレーム %d/%d",
		"Finalizing output":                                     "出力を確定中",
		"Output saved to %s (%d frames)":                        "出力を %s に保存しました (%d フレーム)",
		"Press Ctrl+C to stop early and keep the frames so far": "Ctrl+C で途中停止し、それまでのフレームを保存します",
		"State: %s":                                             "状態: %s",

		// Cancellation
		"Interrupt given: saving output": "中断を受け付けました: 出力を保存します",
		"Stopping after frame %d/%d":     "フレーム %d/%d で停止します",
		"Interrupted, shutting down...":  "中断されました。シャットダウン中...",

		// Collaborators (debug)
		"Using ffprobe for %s":                          "%s に ffprobe を使用",
		"Using mp4 metadata for %s":                     "%s に mp4 メタデータを使用",
		"mp4 probe failed, falling back to ffprobe: %s": "mp4 解析に失敗したため ffprobe を使用します: %s",
		"Decoding frame %d":                             "フレーム %d をデコード中",
		"Encoder started: %s at %v fps with %s":         "エンコーダ起動: %s (%v fps, %s)",
		"Encoder finished after %d frames":              "エンコーダが %d フレームで終了しました",

		// Summary
		"Summary written to %s":     "サマリーを %s に書き込みました",
		"Output contains %d frames": "出力は %d フレームを含みます",

		// Warnings
		"Source ended after %d of %d frames":           "ソースが %d / %d フレームで終了しました",
		"Frame size %dx%d differs from reported %dx%d": "フレームサイズ %dx%d が報告値 %dx%d と異なります",
		"Could not verify output: %s":                  "出力を検証できませんでした: %s",
		"Debug snapshot failed: %s":                    "デバッグ出力に失敗しました: %s",

		// Errors
		"Failed to probe source: %s":    "ソースの解析に失敗しました: %s",
		"Input file not found: %s":      "入力ファイルが見つかりません: %s",
		"Failed to finalize output: %s": "出力の確定に失敗しました: %s",
		"Pipeline failed: %s":           "パイプラインが失敗しました: %s",
	})
}
