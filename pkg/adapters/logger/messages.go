package logger

import "github.com/ideamans/go-l10n"

func init() {
	l10n.Register("ja", l10n.LexiconMap{
		// CLI
		"Opened %s: %s %dx%d, %d ms":    "%s を開きました: %s %dx%d, %d ms",
		"Summary saved to %s":           "サマリーを %s に保存しました",
		"Interrupted, shutting down...": "中断されました。シャットダウン中...",

		// Decoder actor
		"Decoder prepared with %d buffers":         "%d 個のバッファでデコーダを準備しました",
		"Failed to prepare buffer pool: %s":        "バッファプールの準備に失敗しました: %s",
		"Prepare ignored, decoder released":        "デコーダ解放済みのため準備要求を無視しました",
		"Skip decode request in state %s":          "状態 %s のためデコード要求をスキップします",
		"Skip decode step in state %s":             "状態 %s のためデコード処理をスキップします",
		"Skip pause request in state %s":           "状態 %s のため一時停止要求をスキップします",
		"Skip seek request in state %s":            "状態 %s のためシーク要求をスキップします",
		"Waiting for a free buffer":                "空きバッファを待機中",
		"Decode failed, retrying":                  "デコードに失敗しました。再試行します",
		"Decode reached end of stream":             "ストリームの終端に到達しました",
		"Decode step aborted: %s":                  "デコード処理を中止しました: %s",
		"Seek to %d ms aborted: %s":                "%d ms へのシークを中止しました: %s",
		"Seek to %d ms aborted: no buffer available": "%d ms へのシークを中止しました: 空きバッファがありません",
		"Seek to %d ms succeeded in %d ms":         "%d ms へのシークが %d ms で成功しました",
		"Seek to %d ms failed after %d ms":         "%d ms へのシークが %d ms 後に失敗しました",
		"Dropped %d queued requests":               "キュー内の %d 件の要求を破棄しました",
		"Decoder released":                         "デコーダを解放しました",

		// Playback session
		"Session %s started":                                 "セッション %s を開始しました",
		"Seek reconciled, dropped %d stale frames":           "シークを反映し、古いフレーム %d 件を破棄しました",
		"Paused at %d ms":                                    "%d ms で一時停止しました",
		"Resumed":                                            "再開しました",
		"Seeking to %d ms":                                   "%d ms へシーク中",
		"Media cannot be replayed":                           "このメディアは繰り返し再生できません",
		"Replaying (%d/%d)":                                  "繰り返し再生中 (%d/%d)",
		"Session cancelled":                                  "セッションがキャンセルされました",
		"Playback finished: %d video frames, %d audio frames": "再生完了: 映像 %d フレーム, 音声 %d フレーム",
		"Failed to write frame: %s":                          "フレームの書き込みに失敗しました: %s",

		// Snapshot sink
		"Wrote snapshot %s": "スナップショット %s を保存しました",
	})
}
