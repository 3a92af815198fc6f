package mcpserver

// SpecFormatContract describes the cabinet specification tree for LLM
// consumers that build or edit specs through the tools.
const SpecFormatContract = `# Millwork Spec Format Contract

A project's spec is a forest of rooms. Every node has exactly one legal
child type:

    room > room_location > cabinet_run > cabinet > section > content > hardware

Rooms have no parent. Hardware has no children.

## Paths

Nodes are addressed by dot paths built from child indexes:

- ` + "`0`" + ` is the first room.
- ` + "`0.children.1`" + ` is the second location of the first room.
- ` + "`0.children.1.children.0`" + ` is the first run of that location.

Paths are positional. After a delete, later siblings shift down by one, so
re-read the spec (get_spec) before reusing a path. Most tools also accept
names (room_name, location_name, run_name) so paths are rarely needed.

## Cabinets

Cabinets are named by the run they sit in, not by what you type:

| run_type     | names      |
|--------------|------------|
| base, island | B1, B2, ...|
| wall         | W1, W2, ...|
| tall         | T1, T2, ...|
| anything else| C1, C2, ...|

The next number is one more than the highest already used in the run.
Numbers freed by deletes are not reused.

Pass the cabinet's shorthand code as ` + "`name`" + ` or ` + "`code`" + `. It is kept in the
cabinet's code field and used to infer type and width:

| Code          | Type   | Width         | Default depth x height |
|---------------|--------|---------------|------------------------|
| B24, SB36, DB18, BBC42, LS36, LZ36 | base | digits | 24 x 34.5 |
| W3012, U3015  | wall   | first 2 digits| 12 x 30                |
| W30, U24      | wall   | digits        | 12 x 30                |
| T18, TP24, P24| tall   | digits        | 24 x 84                |
| V30, VD24     | vanity | digits        | 21 x 34.5              |

Explicit dimensions always win over inferred ones. Widths accept
` + "`24`, `24\"`, `24in`, `2ft`, `2'`" + `; a bare number is inches.

Linear feet per cabinet = width_inches / 12 x quantity (quantity defaults to 1).

## Pricing

Rooms, locations and runs carry optional pricing attributes:

- ` + "`cabinet_level`" + `: 1 (basic) to 5 (custom)
- ` + "`material_category`" + `: paint_grade, stain_grade, premium, custom_exotic
- ` + "`finish_option`" + `: unfinished, natural_stain, custom_stain, paint_finish, clear_coat

An unset attribute inherits from the nearest ancestor that sets it, then
from the default: level 3, stain_grade, unfinished. Each run is priced at
linear feet x unit price per linear foot, and totals roll up to locations,
rooms and the project. A run whose price cannot be resolved is marked
pricing_unavailable and contributes zero; other runs are unaffected.

## Example

` + "```" + `json
[
  {
    "type": "room", "name": "Kitchen", "room_type": "kitchen", "cabinet_level": 3,
    "children": [
      {
        "type": "room_location", "name": "Sink Wall",
        "children": [
          {
            "type": "cabinet_run", "name": "Base Run", "run_type": "base",
            "children": [
              {"type": "cabinet", "name": "B1", "code": "B24", "cabinet_type": "base", "length_inches": 24, "quantity": 1},
              {"type": "cabinet", "name": "B2", "code": "SB36", "cabinet_type": "base", "length_inches": 36, "quantity": 1}
            ]
          }
        ]
      }
    ]
  }
]
` + "```" + `
`
