/*
Package knowledge implements the incremental query/answer store of the learner.

A Tree maps every queried word to one of three states (ignored, required, answered).
Words are paths from the root, so every prefix of a stored word is stored too.
Required words form a FIFO queue that external oracles drain; every answer is
stamped with a tree-wide counter so recent knowledge can be rolled back with Undo.

# Exchange format

Serialize produces the bit-exact dump described on Serialize. CreateQueryTree and
DeserializeQueryAcceptances form the batch exchange with a remote answering process:
the query tree lists outstanding words in a fixed order and the answers must come
back in that same order and count.
*/
package knowledge
