package pdf

import (
	"testing"
)

func TestSplitSectionsPairsHeadersWithBodies(t *testing.T) {
	text := "Bevezető rendelkezések\n" +
		"1. § A törvény hatálya\n" +
		"Ez a törvény a polgári jogviszonyokra terjed ki.\n" +
		"Második bekezdés is ide tartozik.\n" +
		"\n  2. § Értelmező rendelkezések\n" +
		"E törvény alkalmazásában szerződés a felek megállapodása.\n"

	sections := SplitSections(text)
	if len(sections) != 2 {
		t.Fatalf("expected 2 sections, got %d: %+v", len(sections), sections)
	}
	if sections[0].Header != "1. § A törvény hatálya" {
		t.Fatalf("unexpected first header: %q", sections[0].Header)
	}
	if sections[0].Body != "Ez a törvény a polgári jogviszonyokra terjed ki.\nMásodik bekezdés is ide tartozik." {
		t.Fatalf("unexpected first body: %q", sections[0].Body)
	}
	if sections[1].Header != "2. § Értelmező rendelkezések" {
		t.Fatalf("unexpected second header: %q", sections[1].Header)
	}
}

func TestSplitSectionsDropsPreamble(t *testing.T) {
	text := "Hosszú preambulum, amelyhez nem tartozik szakaszjel.\n" +
		"12. § Felmondás\n" +
		"A szerződés felmondható.\n"

	sections := SplitSections(text)
	if len(sections) != 1 {
		t.Fatalf("expected 1 section, got %d", len(sections))
	}
	if sections[0].Header != "12. § Felmondás" {
		t.Fatalf("unexpected header: %q", sections[0].Header)
	}
}

func TestSplitSectionsNoHeaders(t *testing.T) {
	if got := SplitSections("csak sima szöveg szakaszjel nélkül\n"); got != nil {
		t.Fatalf("expected nil for header-free text, got %+v", got)
	}
}

func TestSplitSectionsHeaderVariants(t *testing.T) {
	text := "x\n3 § rövid alak\ntörzs\n\n4. § pontos alak\nmásik törzs\n"
	sections := SplitSections(text)
	if len(sections) != 2 {
		t.Fatalf("expected both header variants to match, got %d", len(sections))
	}
	if sections[0].Header != "3 § rövid alak" || sections[1].Header != "4. § pontos alak" {
		t.Fatalf("unexpected headers: %q, %q", sections[0].Header, sections[1].Header)
	}
}
