package repository

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"

	"thinkbot-go/internal/model"
	"thinkbot-go/pkg/log"

	gormsqlite "github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestMain(m *testing.M) {
	log.Init("error", "console", "")
	os.Exit(m.Run())
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(gormsqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&model.Conversation{}, &model.Message{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func TestFindBySessionAndUserRequiresBothMatch(t *testing.T) {
	db := openTestDB(t)
	repo := NewConversationRepository(db, nil)
	ctx := context.Background()

	conv := &model.Conversation{SessionID: "session_1_abcd", UserID: "alice"}
	require.NoError(t, repo.Create(ctx, conv))

	found, err := repo.FindBySessionAndUser(ctx, "session_1_abcd", "alice")
	require.NoError(t, err)
	require.Equal(t, conv.ID, found.ID)

	_, err = repo.FindBySessionAndUser(ctx, "session_1_abcd", "bob")
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestMessagesAscendingOrder(t *testing.T) {
	db := openTestDB(t)
	repo := NewConversationRepository(db, nil)
	ctx := context.Background()

	conv := &model.Conversation{SessionID: "session_2_abcd", UserID: "alice"}
	require.NoError(t, repo.Create(ctx, conv))

	for i, text := range []string{"first", "second", "third"} {
		sender := model.SenderUser
		if i%2 == 1 {
			sender = model.SenderAI
		}
		_, err := repo.AppendMessage(ctx, conv, sender, text)
		require.NoError(t, err)
	}

	msgs, err := repo.Messages(ctx, conv.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	require.Equal(t, "first", msgs[0].Text)
	require.Equal(t, "second", msgs[1].Text)
	require.Equal(t, "third", msgs[2].Text)
}

// History 把存储层的 sender 映射为 LLM 接口的 role。
func TestHistoryRoleMapping(t *testing.T) {
	db := openTestDB(t)
	repo := NewConversationRepository(db, nil)
	ctx := context.Background()

	conv := &model.Conversation{SessionID: "session_3_abcd", UserID: "alice"}
	require.NoError(t, repo.Create(ctx, conv))
	_, err := repo.AppendMessage(ctx, conv, model.SenderUser, "question")
	require.NoError(t, err)
	_, err = repo.AppendMessage(ctx, conv, model.SenderAI, "answer")
	require.NoError(t, err)

	history, err := repo.History(ctx, conv)
	require.NoError(t, err)
	require.Len(t, history, 2)
	require.Equal(t, "user", history[0].Role)
	require.Equal(t, "question", history[0].Content)
	require.Equal(t, "assistant", history[1].Role)
	require.Equal(t, "answer", history[1].Content)
}

func TestListRecentHonorsLimit(t *testing.T) {
	db := openTestDB(t)
	repo := NewConversationRepository(db, nil)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		conv := &model.Conversation{SessionID: fmt.Sprintf("session_%d_x", i), UserID: "u"}
		require.NoError(t, repo.Create(ctx, conv))
	}

	convs, err := repo.ListRecent(ctx, 3)
	require.NoError(t, err)
	require.Len(t, convs, 3)
	// 新的在前
	require.Equal(t, "session_4_x", convs[0].SessionID)
}
