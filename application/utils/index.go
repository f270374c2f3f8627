package utils

import (
	"encoding/base64"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

func GenerateULIDString() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), ulid.DefaultEntropy()).String()
}

func GetStringPointer(text string) *string {
	return &text
}

func GetBooleanPointer(data bool) *bool {
	return &data
}

func GetFloat64Pointer(data float64) *float64 {
	return &data
}

func GetInt64Pointer(data int64) *int64 {
	return &data
}

func GetUIntPointer(data uint) *uint {
	return &data
}

// DecodeBase64Image accepts either a raw base64 payload or a data URL
// ("data:image/jpeg;base64,....") and returns the decoded bytes.
func DecodeBase64Image(payload string) ([]byte, error) {
	if strings.HasPrefix(payload, "data:") {
		if idx := strings.Index(payload, ","); idx != -1 {
			payload = payload[idx+1:]
		}
	}
	return base64.StdEncoding.DecodeString(payload)
}

func HasItemString(arr *[]string, target string) bool {
	for _, v := range *arr {
		if v == target {
			return true
		}
	}
	return false
}
