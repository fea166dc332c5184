package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

// maxBodyBytes はリクエストボディの上限です。
const maxBodyBytes = 1 << 20

// EnableStrictJSON は gin の JSON バインディングで未知のフィールドを拒否するようにします。
// プロセス全体の設定なのでルーター構築時に一度だけ呼びます。
func EnableStrictJSON() {
	binding.EnableDecoderDisallowUnknownFields = true
}

// BindStrictJSON はボディを gin の JSON バインディングで dst にデコードします。
// 未知のフィールド（EnableStrictJSON 後）や2つ目のJSON値が含まれる場合はエラーになります。
func BindStrictJSON(c *gin.Context, dst any) error {
	if c.Request.Body == nil {
		return errors.New("request body is required")
	}
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	if len(body) == 0 {
		return errors.New("request body is required")
	}

	if err := binding.JSON.BindBody(body, dst); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	// デコーダは最初の値で止まるため、後続データは全体の妥当性で検出する
	if !json.Valid(body) {
		return errors.New("invalid request body: unexpected data after JSON object")
	}
	return nil
}
