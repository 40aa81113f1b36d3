package common_test

import (
	"testing"

	"github.com/anecdotario/photo-services/models/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRenditionPolicy(t *testing.T) {
	policy := common.DefaultRenditionPolicy()
	require.Equal(t, 3, len(policy))
	assert.Equal(t, common.RenditionSpec{Name: "thumbnail", Size: 150, Quality: 85, Public: true}, policy[0])
	assert.Equal(t, common.RenditionSpec{Name: "standard", Size: 320, Quality: 90}, policy[1])
	assert.Equal(t, common.RenditionSpec{Name: "high_res", Size: 800, Quality: 95}, policy[2])
	assert.Equal(t, "thumbnail", common.PublicRendition(policy))
}

func TestParseRenditionPolicy(t *testing.T) {
	policy, err := common.ParseRenditionPolicy("small:100:80:public, large:640:92")
	require.Nil(t, err)
	require.Equal(t, 2, len(policy))
	assert.Equal(t, common.RenditionSpec{Name: "small", Size: 100, Quality: 80, Public: true}, policy[0])
	assert.Equal(t, common.RenditionSpec{Name: "large", Size: 640, Quality: 92}, policy[1])
	assert.Equal(t, "small", common.PublicRendition(policy))
}

func TestParseRenditionPolicyErrors(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{"empty", ""},
		{"blank", "   "},
		{"too few fields", "thumb:150"},
		{"too many fields", "thumb:150:85:public:extra"},
		{"non-numeric size", "thumb:big:85:public"},
		{"zero size", "thumb:0:85:public"},
		{"quality out of range", "thumb:150:101:public"},
		{"bad flag", "thumb:150:85:private"},
		{"no public rendition", "thumb:150:85,std:320:90"},
		{"two public renditions", "thumb:150:85:public,std:320:90:public"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := common.ParseRenditionPolicy(test.value)
			assert.NotNil(t, err)
		})
	}
}
