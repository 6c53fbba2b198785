package handlers

import (
	"testing"

	"github.com/campusworks/lms-quiz-service/internal/models"
)

func TestMapCasdoorRoleToUserRole(t *testing.T) {
	cam := &CasdoorAuthMiddleware{}

	tests := []struct {
		casdoorType string
		want        models.UserRole
	}{
		{casdoorType: "admin", want: models.RoleAdmin},
		{casdoorType: "Educator", want: models.RoleInstructor},
		{casdoorType: "learner", want: models.RoleStudent},
	}
	for _, tt := range tests {
		if got := cam.mapCasdoorRoleToUserRole(tt.casdoorType); got != tt.want {
			t.Errorf("mapCasdoorRoleToUserRole(%q) = %q, want %q", tt.casdoorType, got, tt.want)
		}
	}

	if got := cam.mapCasdoorRoleToUserRole("superuser"); got.Valid() {
		t.Fatalf("unmapped type must not resolve to a usable role, got %q", got)
	}
}
