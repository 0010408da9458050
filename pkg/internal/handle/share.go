package handle

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/filecodebox/pkg/configs"
	"github.com/yeisme/filecodebox/pkg/internal/service"
	"github.com/yeisme/filecodebox/pkg/internal/types"
	"github.com/yeisme/filecodebox/pkg/log"
	"github.com/yeisme/filecodebox/pkg/rule"
)

// CreateShare 处理上传请求：multipart 表单带 file 部分或 text 字段，
// 以及可选的 expired_style / expired_value. 成功返回取件码.
func CreateShare(c *gin.Context) {
	shareLog := log.Logger()

	var form types.CreateShareForm
	if err := c.ShouldBind(&form); err != nil {
		shareLog.Warn().Err(err).Msg("invalid share form")
		respondError(c, service.ErrValidation)

		return
	}

	if err := rule.ValidateStruct(&form); err != nil {
		shareLog.Warn().Err(err).Msg("share form validation failed")
		respondError(c, service.ErrValidation)

		return
	}

	svc := service.NewShareService(c.Request.Context())

	// 文件部分优先；没有文件时退回文本字段
	if fh, err := c.FormFile("file"); err == nil && fh != nil {
		f, err := fh.Open()
		if err != nil {
			shareLog.Error().Err(err).Str("file_name", fh.Filename).Msg("open uploaded file failed")
			respondError(c, service.ErrStore)

			return
		}
		defer f.Close()

		mediaType := fh.Header.Get("Content-Type")

		res, err := svc.CreateFile(c.Request.Context(), fh.Filename, f, fh.Size, mediaType,
			form.ExpiredStyle, form.ExpiredValue)
		if err != nil {
			shareLog.Warn().Err(err).Str("file_name", fh.Filename).Msg("create file share failed")
			respondError(c, err)

			return
		}

		shareLog.Info().
			Str("code", res.Code).
			Str("file_name", fh.Filename).
			Int64("size", fh.Size).
			Msg("file share created")
		respondData(c, res)

		return
	}

	if form.Text == "" {
		respondError(c, service.ErrValidation)

		return
	}

	res, err := svc.CreateText(c.Request.Context(), form.Text, form.ExpiredStyle, form.ExpiredValue)
	if err != nil {
		shareLog.Warn().Err(err).Msg("create text share failed")
		respondError(c, err)

		return
	}

	shareLog.Info().Str("code", res.Code).Int("size", len(form.Text)).Msg("text share created")
	respondData(c, res)
}

// GetShare 按取件码取回分享内容.
// 文本分享返回 JSON，文件分享返回带下载头的字节流.
func GetShare(c *gin.Context) {
	code := c.Param("code")
	if !validCode(code, configs.GetConfig().Share.CodeLength) {
		respondError(c, service.ErrValidation)

		return
	}

	svc := service.NewShareService(c.Request.Context())

	entry, rc, err := svc.Retrieve(c.Request.Context(), code)
	if err != nil {
		respondError(c, err)

		return
	}

	if entry.IsFile() {
		defer rc.Close()

		// 文件名百分号编码，兼容非 ASCII 名称
		escaped := url.PathEscape(entry.OriginalName)
		extra := map[string]string{
			"Content-Disposition": fmt.Sprintf("attachment; filename=\"%s\"; filename*=UTF-8''%s", escaped, escaped),
		}

		c.DataFromReader(http.StatusOK, entry.ByteSize, entry.MediaType, rc, extra)

		return
	}

	c.JSON(http.StatusOK, types.TextShareResponse{
		Type:      string(entry.Kind),
		Text:      entry.Content,
		CreatedAt: entry.CreatedAt,
		ExpiredAt: entry.ExpiresAt,
	})
}

// GetShareInfo 返回分享元信息，不传输内容字节.
func GetShareInfo(c *gin.Context) {
	code := c.Param("code")
	if !validCode(code, configs.GetConfig().Share.CodeLength) {
		respondError(c, service.ErrValidation)

		return
	}

	svc := service.NewShareService(c.Request.Context())

	info, err := svc.Info(c.Request.Context(), code)
	if err != nil {
		respondError(c, err)

		return
	}

	c.JSON(http.StatusOK, info)
}
