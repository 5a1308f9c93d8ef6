package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserFormDiff(t *testing.T) {
	orig := User{UID: "u-1", Username: "budi", Role: RoleViewer, Active: true}

	tests := []struct {
		name     string
		form     UserForm
		expected map[string]any
	}{
		{
			name:     "nothing changed",
			form:     UserForm{Username: "budi", Role: RoleViewer, Active: true},
			expected: map[string]any{},
		},
		{
			name:     "role changed only",
			form:     UserForm{Username: "budi", Role: RoleAdmin, Active: true},
			expected: map[string]any{"role": RoleAdmin},
		},
		{
			name:     "blank password is omitted",
			form:     UserForm{Username: "budi2", Password: "", Role: RoleViewer, Active: false},
			expected: map[string]any{"username": "budi2", "active": false},
		},
		{
			name:     "password set",
			form:     UserForm{Username: "budi", Password: "rahasia", Role: RoleViewer, Active: true},
			expected: map[string]any{"password": "rahasia"},
		},
		{
			name:     "username is trimmed before comparing",
			form:     UserForm{Username: "  budi ", Role: RoleViewer, Active: true},
			expected: map[string]any{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			patch, err := tt.form.Diff(orig)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, patch)
		})
	}
}

func TestUserFormDiffRequiresUsernameAndRole(t *testing.T) {
	_, err := UserForm{Username: "", Role: RoleViewer}.Diff(User{})
	assert.ErrorIs(t, err, ErrInvalidForm)

	_, err = UserForm{Username: "budi", Role: " "}.Diff(User{})
	assert.ErrorIs(t, err, ErrInvalidForm)
}

func TestUserFormCreateRequest(t *testing.T) {
	req, err := UserForm{Username: " sari ", Password: "pw", Role: RoleAdmin}.CreateRequest()
	require.NoError(t, err)
	assert.Equal(t, CreateUserRequest{Username: "sari", Password: "pw", Role: RoleAdmin}, req)

	_, err = UserForm{Username: "sari", Role: RoleAdmin}.CreateRequest()
	assert.ErrorIs(t, err, ErrInvalidForm)
}

func TestMemberFormCreateRequest(t *testing.T) {
	tests := []struct {
		name    string
		form    MemberForm
		wantErr bool
		want    CreateMemberRequest
	}{
		{
			name: "with telegram",
			form: MemberForm{IDPengguna: "12345", Telegram: " @budi ", Active: true},
			want: CreateMemberRequest{IDPengguna: 12345, Telegram: strPtr("@budi"), Jenis: JenisStockity, Active: true},
		},
		{
			name: "blank telegram is omitted",
			form: MemberForm{IDPengguna: "7"},
			want: CreateMemberRequest{IDPengguna: 7, Jenis: JenisStockity},
		},
		{name: "empty id", form: MemberForm{IDPengguna: ""}, wantErr: true},
		{name: "zero id", form: MemberForm{IDPengguna: "0"}, wantErr: true},
		{name: "not a number", form: MemberForm{IDPengguna: "abc"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := tt.form.CreateRequest(JenisStockity)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidForm)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, req)
		})
	}
}

func TestParseJenis(t *testing.T) {
	j, ok := ParseJenis("binomo")
	assert.True(t, ok)
	assert.Equal(t, JenisBinomo, j)
	assert.Equal(t, "Binomo", j.Title())

	_, ok = ParseJenis("iqoption")
	assert.False(t, ok)
}

func strPtr(s string) *string { return &s }
