// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

//go:build mage

package main

// sampleConversation exercises math, markup escaping and an inline image.
const sampleConversation = `title: Quadratic formula
timestamp: "2026-05-01 09:00"
messages:
  - role: user
    content: |
      How do I solve $ax^2 + bx + c = 0$?
      Please keep the *explanation* short.
    images:
      - "data:image/png;base64,iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mP8z8BQDwAEhQGAhKmMIQAAAABJRU5ErkJggg=="
  - role: model
    content: |
      Use the quadratic formula:

      $$x = \frac{-b \pm \sqrt{b^2 - 4ac}}{2a}$$

      The term \(b^2 - 4ac\) is the **discriminant** (#1 check).
`
