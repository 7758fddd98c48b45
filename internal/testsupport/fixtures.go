package testsupport

import (
	"fmt"
	"strings"
)

// StepsJSON renders a minimal valid step document with the given number of
// steps. Step n covers [20(n-1), 20n) seconds.
func StepsJSON(stepCount int) string {
	if stepCount < 1 {
		stepCount = 1
	}
	var steps []string
	for i := 1; i <= stepCount; i++ {
		start := (i - 1) * 20
		end := i * 20
		steps = append(steps, fmt.Sprintf(`{
      "no": %d,
      "start": "%02d:%02d",
      "end": "%02d:%02d",
      "shot": "%02d:%02d",
      "frame_file": "frame_%04d.jpg",
      "telop": "手順%d",
      "action": "操作する",
      "target": "対象%d",
      "narration": "手順%dを実行します。"
    }`, i, start/60, start%60, end/60, end%60, (start+8)/60, (start+8)%60, i, i, i, i))
	}
	return fmt.Sprintf(`{
  "title": "テストマニュアル",
  "goal": "テスト手順の確認",
  "language": "ja",
  "source": {
    "video_duration_sec": %d,
    "video_fps": 30,
    "resolution": "1920x1080"
  },
  "steps": [%s]
}`, stepCount*20, strings.Join(steps, ","))
}
