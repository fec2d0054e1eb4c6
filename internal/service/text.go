package service

import (
	"bytes"
	stdhtml "html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

var (
	markdownEngine = goldmark.New(
		goldmark.WithExtensions(extension.GFM, extension.Linkify, extension.Table),
		goldmark.WithRendererOptions(html.WithHardWraps(), html.WithXHTML()),
	)
	htmlSanitizer = bluemonday.UGCPolicy()
	stripPolicy   = bluemonday.StrictPolicy()
)

// plainText 去掉所有标记，只保留文本；实体会被还原，避免 & 被存成 &amp;
func plainText(input string) string {
	stripped := stripPolicy.Sanitize(strings.TrimSpace(input))
	return strings.TrimSpace(stdhtml.UnescapeString(stripped))
}

// RenderBio 将个人简介的 Markdown 渲染为安全的 HTML
func RenderBio(markdown string) string {
	markdown = strings.TrimSpace(markdown)
	if markdown == "" {
		return ""
	}
	var buf bytes.Buffer
	if err := markdownEngine.Convert([]byte(markdown), &buf); err != nil {
		return stdhtml.EscapeString(markdown)
	}
	return strings.TrimSpace(string(htmlSanitizer.SanitizeBytes(buf.Bytes())))
}
