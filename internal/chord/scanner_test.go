package chord

import "testing"

func TestScannerModifiersAndKey(t *testing.T) {
	s := NewScanner([]byte(`C-M-a "x"`), "", "")
	if tok := s.Next(); tok.Kind != TokModCtrl {
		t.Fatalf("want TokModCtrl, got %v", tok.Kind)
	}
	if tok := s.Next(); tok.Kind != TokModMeta {
		t.Fatalf("want TokModMeta, got %v", tok.Kind)
	}
	if tok := s.Next(); tok.Kind != TokKey || tok.Text != "a" {
		t.Fatalf("want key 'a', got %v %q", tok.Kind, tok.Text)
	}
}

func TestScannerDescriptionEscape(t *testing.T) {
	s := NewScanner([]byte(`"say \"hi\""`), "", "")
	tok := s.Next()
	if tok.Kind != TokDescription || tok.Text != `say "hi"` {
		t.Fatalf("got %v %q", tok.Kind, tok.Text)
	}
}

func TestScannerCommandBalancedBraces(t *testing.T) {
	s := NewScanner([]byte(`%{{echo {a,b}}}`), "", "")
	tok := s.Next()
	if tok.Kind != TokCommand || tok.Text != "echo {a,b}" {
		t.Fatalf("got %v %q", tok.Kind, tok.Text)
	}
}

func TestScannerInterpolationSplitsFragments(t *testing.T) {
	s := NewScanner([]byte(`"hi %(name) there"`), "", "")
	frag1 := s.Next()
	if frag1.Kind != TokDescInterp || frag1.Text != "hi " {
		t.Fatalf("got %v %q", frag1.Kind, frag1.Text)
	}
	ident := s.Next()
	if ident.Kind != TokIdent || ident.Text != "name" {
		t.Fatalf("got %v %q", ident.Kind, ident.Text)
	}
	frag2 := s.Next()
	if frag2.Kind != TokDescription || frag2.Text != " there" {
		t.Fatalf("got %v %q", frag2.Kind, frag2.Text)
	}
}

func TestScannerSpecialKeyLongestMatch(t *testing.T) {
	s := NewScanner([]byte(`Page_Up "pgup"`), "", "")
	tok := s.Next()
	if tok.Kind != TokSpecialKey || tok.Text != "Page_Up" {
		t.Fatalf("got %v %q", tok.Kind, tok.Text)
	}
}

func TestScannerComment(t *testing.T) {
	s := NewScanner([]byte("# a comment\na \"x\""), "", "")
	tok := s.Next()
	if tok.Kind != TokKey || tok.Text != "a" {
		t.Fatalf("comment should be skipped, got %v %q", tok.Kind, tok.Text)
	}
}
