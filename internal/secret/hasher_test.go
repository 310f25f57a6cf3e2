package secret

import "testing"

func TestVerifyExactMatch(t *testing.T) {
	hasher := NewBcryptHasherWithCost(4)

	hash, err := hasher.Hash("CTF{x}")
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	if !hasher.Verify("CTF{x}", hash) {
		t.Fatal("exact flag should verify")
	}
}

func TestVerifyIsCaseSensitive(t *testing.T) {
	hasher := NewBcryptHasherWithCost(4)

	hash, err := hasher.Hash("CTF{x}")
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	if hasher.Verify("ctf{x}", hash) {
		t.Fatal("flags are case-sensitive, lowercase attempt must fail")
	}
	if hasher.Verify("CTF{x} ", hash) {
		t.Fatal("trailing whitespace must fail")
	}
}

func TestVerifyEmptyInputs(t *testing.T) {
	hasher := NewBcryptHasherWithCost(4)

	hash, err := hasher.Hash("CTF{x}")
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	if hasher.Verify("", hash) {
		t.Fatal("empty attempt must be incorrect")
	}
	if hasher.Verify("CTF{x}", "") {
		t.Fatal("empty stored hash must be incorrect")
	}
	if hasher.Verify("", "") {
		t.Fatal("empty attempt against empty hash must be incorrect")
	}
}

func TestHashesAreSalted(t *testing.T) {
	hasher := NewBcryptHasherWithCost(4)

	first, err := hasher.Hash("CTF{same}")
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	second, err := hasher.Hash("CTF{same}")
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	if first == second {
		t.Fatal("two hashes of the same flag should differ")
	}
	if !hasher.Verify("CTF{same}", first) || !hasher.Verify("CTF{same}", second) {
		t.Fatal("both salted hashes should verify the original flag")
	}
}
