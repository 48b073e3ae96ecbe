package resume

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// MaxSize 是单个简历文件的上限。
const MaxSize int64 = 5 * 1024 * 1024

// 每种扩展名允许的嗅探结果。docx 本质是 zip，doc 是 OLE 容器。
var allowedTypes = map[string][]string{
	".pdf":  {"application/pdf"},
	".doc":  {"application/msword", "application/x-ole-storage"},
	".docx": {"application/vnd.openxmlformats-officedocument.wordprocessingml.document", "application/zip"},
	".jpeg": {"image/jpeg"},
	".jpg":  {"image/jpeg"},
	".png":  {"image/png"},
	".gif":  {"image/gif"},
}

// Extension 返回规范化的扩展名，不在白名单内时返回错误。
func Extension(filename string) (string, error) {
	ext := strings.ToLower(filepath.Ext(strings.TrimSpace(filename)))
	if _, ok := allowedTypes[ext]; !ok {
		return "", fmt.Errorf("only pdf, doc, docx, jpeg, jpg, png and gif files are allowed")
	}
	return ext, nil
}

// MatchesExtension 判断嗅探到的类型是否与扩展名一致，会沿父类型向上匹配。
func MatchesExtension(ext string, detected *mimetype.MIME) bool {
	allowed := allowedTypes[ext]
	for m := detected; m != nil; m = m.Parent() {
		for _, want := range allowed {
			if m.Is(want) {
				return true
			}
		}
	}
	return false
}

// ObjectKey 生成 resumes/<studentID>/<uuid><ext> 形式的对象 Key。
func ObjectKey(studentID uint, ext string) string {
	return fmt.Sprintf("resumes/%d/%s%s", studentID, uuid.NewString(), ext)
}

// IsValidObjectKey 校验 Key 属于指定学生且格式安全。
func IsValidObjectKey(studentID uint, key string) bool {
	if key == "" || !utf8.ValidString(key) || len(key) > 200 {
		return false
	}
	if !strings.HasPrefix(key, fmt.Sprintf("resumes/%d/", studentID)) {
		return false
	}
	if strings.Contains(key, "..") || strings.Contains(key, "\\") || strings.Contains(key, "//") {
		return false
	}
	_, err := Extension(key)
	return err == nil
}
