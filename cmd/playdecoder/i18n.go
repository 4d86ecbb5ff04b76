// Package main provides localization for the playdecoder CLI.
package main

import (
	"github.com/ideamans/go-l10n"
)

func init() {
	// Register Japanese translations for CLI messages.
	l10n.Register("ja", l10n.LexiconMap{
		// Flag categories
		"Input":     "入力",
		"Playback":  "再生",
		"Snapshots": "スナップショット",
		"Output":    "出力先",
		"Logging":   "ログ",

		// Root command
		"Decode and play MP4 files through a bounded buffer pool": "MP4ファイルを固定サイズのバッファプールでデコード・再生",
		"playdecoder decodes the video and audio samples of an MP4 file on a background decoder, renders them in order and reports what was played.": "playdecoderはMP4ファイルの映像・音声サンプルをバックグラウンドでデコードし、順番に描画して再生結果を報告します。",

		// Commands
		"Play a media file":                  "メディアファイルを再生",
		"Show the structure of a media file": "メディアファイルの構造を表示",
		"Missing media file":                 "メディアファイルが指定されていません",

		// Input flags
		"YAML configuration file":                  "YAML設定ファイル",
		"Path to the ffmpeg binary used for H.264": "H.264のデコードに使うffmpegのパス",

		// Playback flags
		"Number of decode buffers":                           "デコードバッファの数",
		"Seek to this position in milliseconds (repeatable)": "指定位置（ミリ秒）へシーク（複数指定可）",
		"Video frames to render between seeks":               "シーク間に描画する映像フレーム数",
		"Pause once at this position in milliseconds":        "指定位置（ミリ秒）で一度だけ一時停止",
		"How long to stay paused":                            "一時停止の長さ",
		"Replay the file this many extra times":              "ファイルを追加で繰り返し再生する回数",

		// Snapshot flags
		"Directory for frame snapshots (disabled when empty)": "フレームスナップショットの保存先（空の場合は無効）",
		"Save every Nth video frame":                          "N フレームごとに保存",
		"Snapshot width in pixels (0 keeps the frame size)":   "スナップショットの幅（ピクセル、0で元のサイズ）",
		"Snapshot image format (png, jpeg)":                   "スナップショットの画像形式（png, jpeg）",

		// Output flags
		"Write a Markdown playback summary to this file": "Markdown形式の再生サマリーをこのファイルに出力",

		// Logging flags
		"Log level (debug, info, warn, error)": "ログレベル（debug, info, warn, error）",
		"Suppress all log output":              "すべてのログ出力を抑制",

		// Probe output
		"progressive": "通常",
		"fragmented":  "フラグメント",
		"  video: %s %dx%d, %s samples, %s keyframes": "  映像: %s %dx%d, %s サンプル, %s キーフレーム",
		"  audio: %s, %s samples":                     "  音声: %s, %s サンプル",
		"  duration: %s":                              "  長さ: %s",

		// Play output
		"Played %s video and %s audio frames (%s) in %s":                 "映像 %s フレーム、音声 %s フレーム (%s) を %s で再生しました",
		"Seeks: %d (%d failed), dropped frames: %d, pauses: %d, loops: %d": "シーク: %d (失敗 %d)、破棄フレーム: %d、一時停止: %d、ループ: %d",
		"Sink errors: %d": "出力エラー: %d",

		// Summary report
		"Playback Summary": "再生サマリー",
		"Generated":        "生成日時",
		"Generated by":     "生成元",
		"Media":            "メディア",
		"Settings":         "設定",
		"Results":          "結果",
		"Item":             "項目",
		"Value":            "値",
		"File":             "ファイル",
		"Video Codec":      "映像コーデック",
		"Audio Codec":      "音声コーデック",
		"Resolution":       "解像度",
		"Duration":         "長さ",
		"Samples":          "サンプル数",
		"Layout":           "形式",
		"Buffer Pool":      "バッファプール",
		"Seeks":            "シーク",
		"Loops":            "ループ",
		"None":             "なし",
		"Session":          "セッション",
		"Video Frames":     "映像フレーム",
		"Audio Frames":     "音声フレーム",
		"Data":             "データ量",
		"Last Frame":       "最終フレーム",
		"failed":           "失敗",
		"Dropped Frames":   "破棄フレーム",
		"Sink Errors":      "出力エラー",
		"Elapsed":          "経過時間",
		"Frame Rate":       "フレームレート",
	})
}
