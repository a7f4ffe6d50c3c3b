package collector

import "testing"

func TestCleanMessageText(t *testing.T) {
	in := "JUST IN: Exchange lists new token @cryptonews\nTelegram | Twitter"
	want := "JUST IN: Exchange lists new token"
	if got := CleanMessageText(in); got != want {
		t.Fatalf("CleanMessageText = %q, want %q", got, want)
	}

	// 没有提及和尾缀时只做去空白
	if got := CleanMessageText("  plain message  "); got != "plain message" {
		t.Fatalf("CleanMessageText = %q, want trimmed text", got)
	}
}

func TestNewTelegramFetcherDefaults(t *testing.T) {
	f := NewTelegramFetcher(nil)
	if len(f.channels) != len(DefaultTelegramChannels) {
		t.Fatalf("empty channel list should fall back to defaults, got %d", len(f.channels))
	}
}
