package tree

import "github.com/merklixdb/merklix/proof"

// prove descends root along key's bits, accumulating the sibling digest
// at every level, and classifies the terminal node into one of proof's
// three variants (§4.1 prove).
func prove(root *node, key []byte, bits int, src source) (proof.Proof, error) {
	h := src.Hasher()
	n := root
	var siblings [][]byte
	var omitted []bool

	depth := 0
	for depth < bits {
		if err := n.resolve(src); err != nil {
			return proof.Proof{}, err
		}
		if n.kind != kindInternal {
			break
		}
		var sibling *node
		if bit(key, depth) == 0 {
			sibling = n.right
			n = n.left
		} else {
			sibling = n.left
			n = n.right
		}
		if err := sibling.resolve(src); err != nil {
			return proof.Proof{}, err
		}
		sd := sibling.digestOrZero(h)
		if sibling.kind == kindNil {
			omitted = append(omitted, true)
		} else {
			omitted = append(omitted, false)
			siblings = append(siblings, sd)
		}
		depth++
	}

	if err := n.resolve(src); err != nil {
		return proof.Proof{}, err
	}

	p := proof.Proof{Depth: depth, Omitted: omitted, Siblings: siblings}
	switch n.kind {
	case kindNil:
		p.Variant = proof.VariantDeadend
	case kindLeaf:
		value, err := n.valueBytes(src)
		if err != nil {
			return proof.Proof{}, err
		}
		if bytesEqual(n.key, key) {
			p.Variant = proof.VariantExists
			p.Value = value
		} else {
			p.Variant = proof.VariantCollision
			p.CollisionKey = n.key
			p.CollisionValue = value
		}
	}
	return p, nil
}
