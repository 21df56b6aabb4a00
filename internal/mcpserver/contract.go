package mcpserver

// NoteFormatContract describes the canonical note format that LLM
// consumers should follow when creating or updating notes.
const NoteFormatContract = `# Othala Note Format Contract

Every note stored in Othala MUST follow this structure.

## Structure

A note is a unique title plus a Markdown body:

` + "```" + `markdown
Body text in standard Markdown.

Use [[Other Note]] to reference other notes by their exact title.
` + "```" + `

## Rules

1. **Titles are unique and case-sensitive.** ` + "`" + `Foo` + "`" + ` and ` + "`" + `foo` + "`" + ` are
   different notes. Creating a note with an existing title fails.
2. **The title is not part of the body.** Do not repeat it as a heading;
   clients display it separately.
3. **Wikilinks** use double brackets around the exact target title:
   ` + "`" + `[[Reading List]]` + "`" + `. Surrounding whitespace inside the brackets is
   ignored; an empty target ` + "`" + `[[ ]]` + "`" + ` is not a link.
4. **Linking to a note that does not exist yet is allowed.** The target
   shows up in the source note's missing_links until someone creates it.
5. **Markdown subset**: headings, bold, italics, and inline code render
   richly; anything else is kept as plain Markdown text.
6. **Encoding** is UTF-8.

## Example

` + "```" + `markdown
Attendees: Alice, Bob.

Decisions are tracked in [[Project X Roadmap]].
Follow-ups for [[Alice]]:

- review the **design doc**
- tag the ` + "`" + `v2.1` + "`" + ` release
` + "```" + `
`
