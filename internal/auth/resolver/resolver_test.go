package resolver

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/mocky70025/eventplatform-real-sub003/internal/auth"
	"github.com/mocky70025/eventplatform-real-sub003/internal/db"
	"github.com/mocky70025/eventplatform-real-sub003/internal/domain"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrateAll(gdb))
	return gdb
}

func lineIdentity(sub, email string) *auth.Identity {
	return &auth.Identity{
		Provider:       "line",
		ProviderUserID: sub,
		Email:          email,
		EmailVerified:  true,
		DisplayName:    "Taro",
	}
}

func TestResolveCreatesUserAndLink(t *testing.T) {
	gdb := testDB(t)
	r := NewGormResolver(gdb)
	ctx := context.Background()

	userID, err := r.Resolve(ctx, lineIdentity("U1", "taro@example.com"))
	require.NoError(t, err)
	require.NotEmpty(t, userID)

	var user domain.User
	require.NoError(t, gdb.Where("email = ?", "taro@example.com").First(&user).Error)
	require.Equal(t, userID, user.ID.String())
	require.True(t, user.EmailVerified)

	var link domain.Identity
	require.NoError(t, gdb.Where("provider = ? AND provider_user_id = ?", "line", "U1").First(&link).Error)
	require.Equal(t, user.ID, link.UserID)
}

func TestResolveIsIdempotentPerEmail(t *testing.T) {
	gdb := testDB(t)
	r := NewGormResolver(gdb)
	ctx := context.Background()

	first, err := r.Resolve(ctx, lineIdentity("U1", "taro@example.com"))
	require.NoError(t, err)

	second, err := r.Resolve(ctx, lineIdentity("U1", "taro@example.com"))
	require.NoError(t, err)
	require.Equal(t, first, second)

	var count int64
	require.NoError(t, gdb.Model(&domain.User{}).Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestResolveLinksNewProviderToExistingEmail(t *testing.T) {
	gdb := testDB(t)
	r := NewGormResolver(gdb)
	ctx := context.Background()

	fromLine, err := r.Resolve(ctx, lineIdentity("U1", "taro@example.com"))
	require.NoError(t, err)

	fromGoogle, err := r.Resolve(ctx, &auth.Identity{
		Provider:       "google",
		ProviderUserID: "g-123",
		Email:          "Taro@Example.com", // case differs, same account
		EmailVerified:  true,
	})
	require.NoError(t, err)
	require.Equal(t, fromLine, fromGoogle)

	var links int64
	require.NoError(t, gdb.Model(&domain.Identity{}).Count(&links).Error)
	require.EqualValues(t, 2, links)
}

func TestResolveNilIdentity(t *testing.T) {
	r := NewGormResolver(testDB(t))
	_, err := r.Resolve(context.Background(), nil)
	require.Error(t, err)
}
